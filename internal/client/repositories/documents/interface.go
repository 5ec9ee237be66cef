package documents

import (
	"context"
	"time"

	"github.com/strongholdapp/docsync/internal/client/models"
)

// Repository describes the local document cache. Only the sync engine and
// the CLI mutate it; implementations are backed by SQLite.
type Repository interface {
	// Upsert inserts a document or replaces the stored copy by id.
	Upsert(ctx context.Context, doc *models.Document) error

	// GetByID returns a document (tombstones included) or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// List returns all live (non-tombstoned) documents for an owner.
	List(ctx context.Context, ownerID string) ([]models.Document, error)

	// ListIDs returns ids of every locally known document for an owner,
	// including tombstones, so full sync can propagate deletions.
	ListIDs(ctx context.Context, ownerID string) ([]string, error)

	// MarkDeleted sets the tombstone and bumps last_modified, leaving the
	// row in place for sync to propagate.
	MarkDeleted(ctx context.Context, id string, at time.Time) error

	// CountPending counts documents that have never been reconciled
	// (last_synced_at IS NULL).
	CountPending(ctx context.Context, ownerID string) (int, error)
}
