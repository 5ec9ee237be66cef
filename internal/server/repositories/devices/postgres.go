// Package devices provides a PostgreSQL-backed repository for the per-user
// device registry.
package devices

import (
	"context"
	"fmt"

	"github.com/strongholdapp/docsync/internal/dbx"
	"github.com/strongholdapp/docsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert creates or refreshes a device record. A device is updated in place,
// never recreated, so device_id stays stable for the life of the client.
func (r *PostgresRepository) Upsert(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (device_id, owner_id, display_name, device_class, platform, last_seen, is_online, sync_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (device_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			device_class = EXCLUDED.device_class,
			platform = EXCLUDED.platform,
			last_seen = EXCLUDED.last_seen,
			is_online = EXCLUDED.is_online,
			sync_enabled = EXCLUDED.sync_enabled
	`
	_, err := r.db.ExecContext(ctx, query,
		device.DeviceID, device.OwnerID, device.DisplayName, device.DeviceClass,
		device.Platform, device.LastSeen, device.IsOnline, device.SyncEnabled)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's devices ordered by last_seen descending.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Device, error) {
	query := `
		SELECT device_id, owner_id, display_name, device_class, platform, last_seen, is_online, sync_enabled
		FROM devices
		WHERE owner_id = $1
		ORDER BY last_seen DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Device
	for rows.Next() {
		d := &models.Device{}
		if err := rows.Scan(&d.DeviceID, &d.OwnerID, &d.DisplayName, &d.DeviceClass,
			&d.Platform, &d.LastSeen, &d.IsOnline, &d.SyncEnabled); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
