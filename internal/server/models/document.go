// Package models defines server-side data models persisted in the database.
package models

import (
	"encoding/json"
	"time"

	"github.com/strongholdapp/docsync/internal/api"
)

// Document is the authoritative server copy of a vault document. Metadata is
// kept as raw JSON; the server never interprets individual keys.
type Document struct {
	ID             string
	OwnerID        string
	Kind           string
	Title          string
	Content        string
	Metadata       []byte
	Version        int64
	UpdatedAt      time.Time
	DeletedAt      *time.Time
	OriginDeviceID string
}

// ToWire converts the stored row to its API shape.
func (d *Document) ToWire() (api.Document, error) {
	out := api.Document{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		Kind:           d.Kind,
		Title:          d.Title,
		Content:        d.Content,
		Version:        d.Version,
		UpdatedAt:      d.UpdatedAt,
		DeletedAt:      d.DeletedAt,
		OriginDeviceID: d.OriginDeviceID,
	}
	if len(d.Metadata) > 0 {
		if err := json.Unmarshal(d.Metadata, &out.Metadata); err != nil {
			return api.Document{}, err
		}
	}
	return out, nil
}

// DocumentFromWire converts an API document into its stored shape.
func DocumentFromWire(w api.Document) (*Document, error) {
	md, err := json.Marshal(w.Metadata)
	if err != nil {
		return nil, err
	}
	if w.Metadata == nil {
		md = []byte("{}")
	}
	return &Document{
		ID:             w.ID,
		OwnerID:        w.OwnerID,
		Kind:           w.Kind,
		Title:          w.Title,
		Content:        w.Content,
		Metadata:       md,
		Version:        w.Version,
		UpdatedAt:      w.UpdatedAt,
		DeletedAt:      w.DeletedAt,
		OriginDeviceID: w.OriginDeviceID,
	}, nil
}
