package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/client/repositories/metadata"
)

// EnableOfflineMode downloads the jurisdiction templates and validation rule
// sets and persists them in the local store, so document creation and
// editing keep working with no connectivity.
func (e *Engine) EnableOfflineMode(ctx context.Context) error {
	pack, err := e.remote.ReferencePack(ctx, e.cfg.Jurisdiction)
	if err != nil {
		return fmt.Errorf("failed to fetch reference pack: %w", err)
	}
	pack.FetchedAt = e.now().UTC()

	b, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("failed to encode reference pack: %w", err)
	}
	if err := e.meta.Set(ctx, metadata.KeyOfflinePack, b); err != nil {
		return err
	}

	e.log.Info(ctx, "offline reference pack cached",
		"templates", len(pack.Templates), "validation_rules", len(pack.ValidationRules))
	return nil
}

// OfflinePack returns the cached reference pack, or common.ErrNotFound if
// offline mode was never enabled.
func (e *Engine) OfflinePack(ctx context.Context) (*api.ReferencePack, error) {
	b, err := e.meta.Get(ctx, metadata.KeyOfflinePack)
	if err != nil {
		return nil, err
	}
	var pack api.ReferencePack
	if err := json.Unmarshal(b, &pack); err != nil {
		return nil, fmt.Errorf("failed to decode reference pack: %w", err)
	}
	return &pack, nil
}
