package conflicts

import (
	"context"

	"github.com/strongholdapp/docsync/internal/client/models"
)

// Repository is the durable conflict log. Entries are appended by conflict
// detection and removed only by explicit resolution.
type Repository interface {
	Append(ctx context.Context, c *models.SyncConflict) error
	GetByID(ctx context.Context, id string) (*models.SyncConflict, error)
	List(ctx context.Context) ([]models.SyncConflict, error)
	// ExistsForDocument reports whether an unresolved conflict is already
	// logged for the document, so repeated syncs of the same divergence do
	// not duplicate entries.
	ExistsForDocument(ctx context.Context, documentID string) (bool, error)
	Delete(ctx context.Context, id string) error
}
