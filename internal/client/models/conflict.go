package models

import "time"

// ConflictKind describes which parts of a document diverged.
type ConflictKind string

const (
	ConflictContent  ConflictKind = "content"
	ConflictMetadata ConflictKind = "metadata"
	ConflictBoth     ConflictKind = "both"
)

// ResolutionStrategy is supplied by the caller when resolving a conflict.
// The engine never picks one on its own.
type ResolutionStrategy string

const (
	ResolveKeepLocal  ResolutionStrategy = "keep_local"
	ResolveKeepRemote ResolutionStrategy = "keep_remote"
	ResolveMerge      ResolutionStrategy = "merge"
)

// SyncConflict records a detected case of concurrent divergent edits. It is
// persisted in the local conflict log until the caller resolves it; neither
// store is mutated while it is outstanding.
type SyncConflict struct {
	ID         string
	DocumentID string
	Local      *Document
	Remote     *Document
	Kind       ConflictKind
	DetectedAt time.Time
}

// SyncStatus is a read-only snapshot of the engine state.
type SyncStatus struct {
	IsOnline     bool
	LastFullSync *time.Time
	PendingCount int
	Conflicts    []SyncConflict
}
