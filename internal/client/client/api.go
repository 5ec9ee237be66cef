// Package client implements the HTTP client for the Stronghold document API
// and the wiring for the local SQLite database.
//
// The API interface is what the sync engine and CLI consume; tests substitute
// fakes for it. The concrete implementation handles bearer-token auth with
// automatic refresh and retries transient failures with capped backoff.
package client

import (
	"context"

	"github.com/strongholdapp/docsync/internal/api"
)

// API is the remote surface of the document service.
type API interface {
	Close() error

	// Ping probes reachability; used by the online-status watcher.
	Ping(ctx context.Context) error

	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (api.TokenPair, error)

	// GetDocument returns common.ErrNotFound for unknown ids.
	GetDocument(ctx context.Context, id string) (*api.Document, error)

	// UpsertDocument returns common.ErrVersionConflict when the write does
	// not advance the stored version.
	UpsertDocument(ctx context.Context, doc api.Document) error

	Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error)

	UpsertDevice(ctx context.Context, d api.Device) error

	ReferencePack(ctx context.Context, jurisdiction string) (*api.ReferencePack, error)

	PresignPut(ctx context.Context) (key string, url string, err error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// TokenStore persists the access/refresh token pair between runs.
type TokenStore interface {
	Tokens(ctx context.Context) (api.TokenPair, error)
	Save(ctx context.Context, pair api.TokenPair) error
}
