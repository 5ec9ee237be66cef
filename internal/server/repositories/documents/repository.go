package documents

import (
	"context"
	"time"

	"github.com/strongholdapp/docsync/internal/server/models"
)

type Repository interface {
	// GetByID returns the owner's document, or common.ErrNotFound.
	GetByID(ctx context.Context, ownerID, id string) (*models.Document, error)

	// Upsert writes the document if its version advances past the stored one;
	// a stale version yields common.ErrVersionConflict.
	Upsert(ctx context.Context, doc *models.Document) error

	// List returns the owner's documents ordered by updated_at descending,
	// restricted to rows strictly older than before when it is non-nil and to
	// the given kind when it is non-empty.
	List(ctx context.Context, ownerID string, kind string, before *time.Time, limit int) ([]*models.Document, error)
}
