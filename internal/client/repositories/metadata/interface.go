package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyDeviceID     = "device_id"
	KeyLastFullSync = "last_full_sync"
	KeyOfflinePack  = "offline_pack"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyOwnerID      = "owner_id"
)

// Repository is a small persistent key-value store for device identity,
// auth tokens, sync marks, and the offline reference pack. Get returns
// common.ErrNotFound for missing keys.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	GetTime(ctx context.Context, key string) (*time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
	Clear(ctx context.Context) error
}
