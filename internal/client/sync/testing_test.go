package sync

import (
	"context"
	"database/sql"
	stdsync "sync"
	"testing"
	"time"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/client/repositories/conflicts"
	"github.com/strongholdapp/docsync/internal/client/repositories/documents"
	"github.com/strongholdapp/docsync/internal/client/repositories/metadata"
	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/logging"
	"github.com/stretchr/testify/require"

	"log/slog"

	_ "modernc.org/sqlite"
)

// fakeRemote is an in-memory client.API; hooks override single calls.
type fakeRemote struct {
	mu      stdsync.Mutex
	docs    map[string]api.Document
	devices map[string]api.Device
	pack    api.ReferencePack
	upserts int

	pingErr   error
	getHook   func(id string) (*api.Document, error)
	upsertErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[string]api.Document{}, devices: map[string]api.Device{}}
}

func (f *fakeRemote) Close() error { return nil }

func (f *fakeRemote) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeRemote) Register(ctx context.Context, u, p string) error { return nil }

func (f *fakeRemote) Login(ctx context.Context, u, p string) (api.TokenPair, error) {
	return api.TokenPair{}, nil
}

func (f *fakeRemote) GetDocument(ctx context.Context, id string) (*api.Document, error) {
	f.mu.Lock()
	hook := f.getHook
	f.mu.Unlock()
	if hook != nil {
		return hook(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &d, nil
}

func (f *fakeRemote) UpsertDocument(ctx context.Context, doc api.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeRemote) Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error) {
	return &api.QueryResponse{}, nil
}

func (f *fakeRemote) UpsertDevice(ctx context.Context, d api.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[d.DeviceID] = d
	return nil
}

func (f *fakeRemote) ReferencePack(ctx context.Context, jurisdiction string) (*api.ReferencePack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pack
	return &p, nil
}

func (f *fakeRemote) PresignPut(ctx context.Context) (string, string, error) { return "", "", nil }

func (f *fakeRemote) PresignGet(ctx context.Context, key string) (string, error) { return "", nil }

func (f *fakeRemote) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

func (f *fakeRemote) stored(id string) (api.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	return d, ok
}

func (f *fakeRemote) put(d api.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[d.ID] = d
}

type repos struct {
	docs      documents.Repository
	meta      metadata.Repository
	conflicts conflicts.Repository
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE documents (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  metadata TEXT NOT NULL DEFAULT '{}',
  version INTEGER NOT NULL DEFAULT 1,
  last_modified INTEGER NOT NULL,
  last_synced_at INTEGER,
  deleted_at INTEGER,
  origin_device_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);
CREATE TABLE conflicts (
  id TEXT PRIMARY KEY,
  document_id TEXT NOT NULL,
  local_doc TEXT NOT NULL,
  remote_doc TEXT NOT NULL,
  kind TEXT NOT NULL,
  detected_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return repos{
		docs:      documents.NewSQLiteRepository(db),
		meta:      metadata.NewSQLiteRepository(db),
		conflicts: conflicts.NewSQLiteRepository(db),
	}
}

func discardLogger(t *testing.T) logging.Logger {
	t.Helper()
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// fixedClock returns a controllable Clock.
type fixedClock struct {
	mu stdsync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T, r repos, remote *fakeRemote, clock *fixedClock) *Engine {
	t.Helper()
	return New(r.docs, r.meta, r.conflicts, remote, discardLogger(t), clock.Now, Config{
		SyncInterval: time.Hour, // keep background loops quiet in tests
		PingInterval: time.Hour,
	})
}
