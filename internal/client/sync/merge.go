package sync

import (
	"time"

	"github.com/strongholdapp/docsync/internal/client/models"
)

// MetadataMergedAtKey marks merged documents so downstream consumers can tell
// a merge result from a plain edit.
const MetadataMergedAtKey = "lastMergedAt"

// Merge combines a local and a remote copy of the same document: remote
// fields form the base, local fields are overlaid, and metadata is
// shallow-merged (local keys win) with a lastMergedAt marker added.
//
// The result version is max(local, remote)+1. Merge is a pure function of
// its inputs — calling it again on the same pair yields the same version and
// content, so accidental re-entry cannot double-increment.
func Merge(local, remote *models.Document, now time.Time) *models.Document {
	base := remote
	if base == nil {
		base = &models.Document{ID: local.ID, OwnerID: local.OwnerID}
	}

	out := base.Clone()
	out.Kind = local.Kind
	out.Title = local.Title
	out.Content = local.Content
	out.OriginDeviceID = local.OriginDeviceID
	out.DeletedAt = local.DeletedAt

	merged := make(map[string]any, len(base.Metadata)+len(local.Metadata)+1)
	for k, v := range base.Metadata {
		merged[k] = v
	}
	for k, v := range local.Metadata {
		merged[k] = v
	}
	merged[MetadataMergedAtKey] = now.UTC().Format(time.RFC3339Nano)
	out.Metadata = merged

	out.Version = maxVersion(local, remote) + 1
	out.LastModified = now.UTC()
	out.LastSyncedAt = nil
	return out
}

func maxVersion(local, remote *models.Document) int64 {
	var v int64
	if local != nil && local.Version > v {
		v = local.Version
	}
	if remote != nil && remote.Version > v {
		v = remote.Version
	}
	return v
}
