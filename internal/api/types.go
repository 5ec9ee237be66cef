// Package api defines the JSON wire types of the Stronghold document API,
// shared by the server handlers and the client transport.
package api

import (
	"encoding/json"
	"time"
)

// Document is the wire representation of a vault document. Version is a
// per-document monotonic counter; the server rejects writes that do not
// advance it.
type Document struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Kind           string         `json:"kind"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Version        int64          `json:"version"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
	OriginDeviceID string         `json:"origin_device_id,omitempty"`
}

// Device is the wire representation of a registered device.
type Device struct {
	DeviceID    string    `json:"device_id"`
	OwnerID     string    `json:"owner_id"`
	DisplayName string    `json:"display_name"`
	DeviceClass string    `json:"device_class"`
	Platform    string    `json:"platform"`
	LastSeen    time.Time `json:"last_seen"`
	IsOnline    bool      `json:"is_online"`
	SyncEnabled bool      `json:"sync_enabled"`
}

// QueryRequest describes a read against a named source. Cursor-based:
// Cursor, when set, is the boundary value of OrderBy from the previous page.
type QueryRequest struct {
	Source     string         `json:"source"`
	Filters    map[string]any `json:"filters,omitempty"`
	OrderBy    string         `json:"order_by,omitempty"`
	Descending bool           `json:"descending,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Cursor     string         `json:"cursor,omitempty"`
}

// QueryResponse carries raw rows; callers decode them into their own types.
type QueryResponse struct {
	Rows  []json.RawMessage `json:"rows"`
	Total *int64            `json:"total,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is returned by login and refresh. Refresh tokens rotate: using
// one invalidates it and issues a replacement.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Template is a jurisdiction-specific document template served as offline
// reference data.
type Template struct {
	ID           string `json:"id"`
	Jurisdiction string `json:"jurisdiction"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Body         string `json:"body"`
}

// ValidationRule is a field-level constraint served as offline reference data.
type ValidationRule struct {
	ID           string `json:"id"`
	Jurisdiction string `json:"jurisdiction"`
	Field        string `json:"field"`
	Rule         string `json:"rule"`
	Message      string `json:"message"`
}

// ReferencePack bundles the reference data a device needs to operate offline.
type ReferencePack struct {
	Templates       []Template       `json:"templates"`
	ValidationRules []ValidationRule `json:"validation_rules"`
	FetchedAt       time.Time        `json:"fetched_at"`
}

type PresignPutResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PresignGetResponse struct {
	URL string `json:"url"`
}

type PingResponse struct {
	Status string `json:"status"`
}

// Error is the uniform error body. Code is machine-readable (e.g.
// "token_expired", "version_conflict"); Message is for humans.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
