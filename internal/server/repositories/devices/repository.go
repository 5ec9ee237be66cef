package devices

import (
	"context"

	"github.com/strongholdapp/docsync/internal/server/models"
)

type Repository interface {
	// Upsert creates the device on first sight and updates it afterwards.
	Upsert(ctx context.Context, device *models.Device) error

	// ListByOwner returns the owner's registered devices.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Device, error)
}
