package models

import (
	"time"

	"github.com/strongholdapp/docsync/internal/api"
)

// DeviceClass is a coarse hardware category used for display purposes.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
)

// DeviceRecord identifies one installation of the client. DeviceID is
// generated once, persisted in the local metadata store, and never
// regenerated while that store survives. The record is upserted (never
// recreated) on every engine initialization.
type DeviceRecord struct {
	DeviceID    string
	OwnerID     string
	DisplayName string
	DeviceClass DeviceClass
	Platform    string
	LastSeen    time.Time
	IsOnline    bool
	SyncEnabled bool
}

// ToWire converts the record to its API representation.
func (d DeviceRecord) ToWire() api.Device {
	return api.Device{
		DeviceID:    d.DeviceID,
		OwnerID:     d.OwnerID,
		DisplayName: d.DisplayName,
		DeviceClass: string(d.DeviceClass),
		Platform:    d.Platform,
		LastSeen:    d.LastSeen,
		IsOnline:    d.IsOnline,
		SyncEnabled: d.SyncEnabled,
	}
}
