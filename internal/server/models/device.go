package models

import "time"

type Device struct {
	DeviceID    string
	OwnerID     string
	DisplayName string
	DeviceClass string
	Platform    string
	LastSeen    time.Time
	IsOnline    bool
	SyncEnabled bool
}
