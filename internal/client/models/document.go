// Package models defines the client-side data models kept in the local
// document cache and reconciled with the remote store.
package models

import (
	"time"

	"github.com/strongholdapp/docsync/internal/api"
)

// Kind classifies a document.
type Kind string

const (
	KindWill     Kind = "will"
	KindDraft    Kind = "draft"
	KindTemplate Kind = "template"
)

// ValidKind reports whether k is one of the known document kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindWill, KindDraft, KindTemplate:
		return true
	}
	return false
}

// Document is a locally cached, syncable document.
//
// Version increases strictly monotonically across local and remote copies.
// LastSyncedAt is nil until the first successful reconciliation; such
// documents count as pending changes. DeletedAt is a tombstone: deletion
// propagates across devices with last-writer-wins on the tombstone
// timestamp.
type Document struct {
	ID             string
	OwnerID        string
	Kind           Kind
	Title          string
	Content        string
	Metadata       map[string]any
	Version        int64
	LastModified   time.Time
	LastSyncedAt   *time.Time
	DeletedAt      *time.Time
	OriginDeviceID string
}

// Deleted reports whether the document carries a tombstone.
func (d *Document) Deleted() bool {
	return d != nil && d.DeletedAt != nil
}

// ModifiedSinceSync reports whether the local copy changed after the last
// successful reconciliation. A never-synced document always counts as
// modified.
func (d *Document) ModifiedSinceSync() bool {
	if d == nil {
		return false
	}
	if d.LastSyncedAt == nil {
		return true
	}
	return d.LastModified.After(*d.LastSyncedAt)
}

// Clone returns a deep copy; Metadata is copied shallowly per key.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.Metadata != nil {
		out.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	if d.LastSyncedAt != nil {
		t := *d.LastSyncedAt
		out.LastSyncedAt = &t
	}
	if d.DeletedAt != nil {
		t := *d.DeletedAt
		out.DeletedAt = &t
	}
	return &out
}

// ToWire converts the local document to its API representation.
func (d *Document) ToWire() api.Document {
	return api.Document{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		Kind:           string(d.Kind),
		Title:          d.Title,
		Content:        d.Content,
		Metadata:       d.Metadata,
		Version:        d.Version,
		UpdatedAt:      d.LastModified,
		DeletedAt:      d.DeletedAt,
		OriginDeviceID: d.OriginDeviceID,
	}
}

// FromWire converts an API document to the local model. LastSyncedAt is left
// nil; the sync engine sets it when it records a successful reconciliation.
func FromWire(w api.Document) *Document {
	return &Document{
		ID:             w.ID,
		OwnerID:        w.OwnerID,
		Kind:           Kind(w.Kind),
		Title:          w.Title,
		Content:        w.Content,
		Metadata:       w.Metadata,
		Version:        w.Version,
		LastModified:   w.UpdatedAt,
		DeletedAt:      w.DeletedAt,
		OriginDeviceID: w.OriginDeviceID,
	}
}
