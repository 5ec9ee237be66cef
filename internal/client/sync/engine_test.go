package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/client/models"
	"github.com/strongholdapp/docsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedLocal(t *testing.T, r repos, doc *models.Document) {
	t.Helper()
	require.NoError(t, r.docs.Upsert(context.Background(), doc))
}

func TestSyncDocument_PushesLocalChange(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	synced := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "edited locally", Version: 3,
		LastModified: t0.Add(-time.Minute), LastSyncedAt: &synced,
	})
	// remote copy unchanged since the last sync
	remote.put((&models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "old", Version: 3, LastModified: synced,
	}).ToWire())

	res, err := e.SyncDocument(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionPushed, res.Action)
	assert.Equal(t, int64(4), res.Version)

	local, err := r.docs.GetByID(ctx, "d1")
	require.NoError(t, err)
	rem, ok := remote.stored("d1")
	require.True(t, ok)

	assert.Equal(t, local.Version, rem.Version, "local and remote versions agree after sync")
	assert.Equal(t, "edited locally", rem.Content)
	require.NotNil(t, local.LastSyncedAt)
}

func TestSyncDocument_PullsRemoteChange(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	synced := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "stale", Version: 3,
		LastModified: synced, LastSyncedAt: &synced,
	})
	remote.put((&models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "fresh from another device", Version: 4,
		LastModified: t0.Add(-time.Minute),
	}).ToWire())

	res, err := e.SyncDocument(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionPulled, res.Action)

	local, err := r.docs.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "fresh from another device", local.Content)
	assert.Equal(t, int64(4), local.Version)
	require.NotNil(t, local.LastSyncedAt)
	assert.Equal(t, 0, remote.upsertCount(), "pull must not write to the remote store")
}

func TestSyncDocument_NoChanges_NoOp(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	e := newTestEngine(t, r, remote, newFixedClock(t0))
	ctx := context.Background()

	synced := t0.Add(-time.Hour)
	doc := &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindDraft,
		Content: "same", Version: 2,
		LastModified: synced.Add(-time.Minute), LastSyncedAt: &synced,
	}
	seedLocal(t, r, doc)
	remote.put((&models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindDraft,
		Content: "same", Version: 2, LastModified: synced.Add(-time.Minute),
	}).ToWire())

	res, err := e.SyncDocument(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, 0, remote.upsertCount())
}

// The canonical conflict scenario: local v3 edited to "A2" after T0, remote
// moved to v4/"B" at T1 > T0. Expect one content conflict and no writes.
func TestSyncDocument_ConflictDetected(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	syncedT0 := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "w1", OwnerID: "u1", Kind: models.KindWill,
		Content: "A2", Version: 3,
		LastModified: t0.Add(-10 * time.Minute), LastSyncedAt: &syncedT0,
	})
	remote.put((&models.Document{
		ID: "w1", OwnerID: "u1", Kind: models.KindWill,
		Content: "B", Version: 4,
		LastModified: t0.Add(-5 * time.Minute), // T1 > T0
	}).ToWire())

	var events []Event
	e.On(EventConflictDetected, func(ev Event) { events = append(events, ev) })

	res, err := e.SyncDocument(ctx, "w1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionConflict, res.Action)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, models.ConflictContent, res.Conflict.Kind)

	// neither store mutated
	local, err := r.docs.GetByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "A2", local.Content)
	assert.Equal(t, int64(3), local.Version)
	rem, _ := remote.stored("w1")
	assert.Equal(t, "B", rem.Content)
	assert.Equal(t, 0, remote.upsertCount())

	// exactly one conflict logged, one event delivered
	list, err := r.conflicts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "w1", list[0].DocumentID)
	require.Len(t, events, 1)

	// repeating the sync on the same divergence must not duplicate the log
	res2, err := e.SyncDocument(ctx, "w1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionConflict, res2.Action)
	list, err = r.conflicts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, events, 1)
}

func TestSyncDocument_MetadataConflictKind(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	e := newTestEngine(t, r, remote, newFixedClock(t0))
	ctx := context.Background()

	syncedT0 := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "same", Metadata: map[string]any{"executor": "Jane"}, Version: 3,
		LastModified: t0.Add(-10 * time.Minute), LastSyncedAt: &syncedT0,
	})
	remote.put((&models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "same", Metadata: map[string]any{"executor": "John"}, Version: 4,
		LastModified: t0.Add(-5 * time.Minute),
	}).ToWire())

	res, err := e.SyncDocument(ctx, "d1", "u1")
	require.NoError(t, err)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, models.ConflictMetadata, res.Conflict.Kind)
}

func TestSyncDocument_PushesNewLocalDocument(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	e := newTestEngine(t, r, remote, newFixedClock(t0))
	ctx := context.Background()

	seedLocal(t, r, &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindDraft,
		Content: "brand new", Version: 1, LastModified: t0,
	})

	res, err := e.SyncDocument(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionPushed, res.Action)

	rem, ok := remote.stored("d1")
	require.True(t, ok)
	assert.Equal(t, "brand new", rem.Content)

	local, err := r.docs.GetByID(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, local.LastSyncedAt)
}

func TestSyncDocument_TombstonePropagation(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	synced := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "c", Version: 2, LastModified: synced, LastSyncedAt: &synced,
	})
	remote.put((&models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "c", Version: 2, LastModified: synced,
	}).ToWire())

	require.NoError(t, e.DeleteLocal(ctx, "d1"))

	res, err := e.SyncDocument(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionPushed, res.Action)

	rem, _ := remote.stored("d1")
	require.NotNil(t, rem.DeletedAt, "tombstone must reach the remote store")
	assert.Equal(t, int64(3), rem.Version)
}

func TestSyncDocument_DeleteVersusEditEscalates(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	synced := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "c", Version: 2, LastModified: synced, LastSyncedAt: &synced,
	})
	// remote edited after our last sync...
	remote.put((&models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindWill,
		Content: "edited elsewhere", Version: 3, LastModified: t0.Add(-time.Minute),
	}).ToWire())
	// ...while we deleted locally
	require.NoError(t, e.DeleteLocal(ctx, "d1"))

	res, err := e.SyncDocument(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ActionConflict, res.Action)
	assert.Equal(t, 0, remote.upsertCount(), "delete must not win over a concurrent edit")
}

func TestResolve_Merge(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	syncedT0 := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "w1", OwnerID: "u1", Kind: models.KindWill,
		Content: "A2", Version: 3,
		LastModified: t0.Add(-10 * time.Minute), LastSyncedAt: &syncedT0,
	})
	remote.put((&models.Document{
		ID: "w1", OwnerID: "u1", Kind: models.KindWill,
		Content: "B", Version: 4, LastModified: t0.Add(-5 * time.Minute),
	}).ToWire())

	res, err := e.SyncDocument(ctx, "w1", "u1")
	require.NoError(t, err)
	require.NotNil(t, res.Conflict)

	resolved, err := e.Resolve(ctx, res.Conflict.ID, models.ResolveMerge)
	require.NoError(t, err)
	assert.Equal(t, int64(5), resolved.Version)

	local, err := r.docs.GetByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "A2", local.Content, "merge overlays the local content")
	rem, _ := remote.stored("w1")
	assert.Equal(t, local.Version, rem.Version)

	list, err := r.conflicts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "resolution clears the log entry")
}

func TestResolve_KeepRemote(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	e := newTestEngine(t, r, remote, newFixedClock(t0))
	ctx := context.Background()

	syncedT0 := t0.Add(-time.Hour)
	seedLocal(t, r, &models.Document{
		ID: "w1", OwnerID: "u1", Kind: models.KindWill,
		Content: "mine", Version: 3,
		LastModified: t0.Add(-10 * time.Minute), LastSyncedAt: &syncedT0,
	})
	remote.put((&models.Document{
		ID: "w1", OwnerID: "u1", Kind: models.KindWill,
		Content: "theirs", Version: 4, LastModified: t0.Add(-5 * time.Minute),
	}).ToWire())

	res, err := e.SyncDocument(ctx, "w1", "u1")
	require.NoError(t, err)
	require.NotNil(t, res.Conflict)

	_, err = e.Resolve(ctx, res.Conflict.ID, models.ResolveKeepRemote)
	require.NoError(t, err)

	local, err := r.docs.GetByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "theirs", local.Content)
	assert.Equal(t, int64(5), local.Version)
}

func TestPerformFullSync_ContinuesPastFailures(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	for _, id := range []string{"d1", "d2", "d3", "d4", "d5"} {
		seedLocal(t, r, &models.Document{
			ID: id, OwnerID: "u1", Kind: models.KindDraft,
			Content: "c-" + id, Version: 1, LastModified: t0,
		})
	}

	boom := errors.New("connection reset")
	remote.mu.Lock()
	remote.getHook = func(id string) (*api.Document, error) {
		if id == "d3" {
			return nil, boom
		}
		return nil, common.ErrNotFound // unseen upstream, will be pushed
	}
	remote.mu.Unlock()

	var failed []string
	e.On(EventSyncFailed, func(ev Event) { failed = append(failed, ev.DocumentID) })
	var completed []Event
	e.On(EventSyncCompleted, func(ev Event) { completed = append(completed, ev) })

	require.NoError(t, e.PerformFullSync(ctx, "u1"), "full sync must not surface per-document failures")

	assert.Equal(t, []string{"d3"}, failed, "syncFailed fires for the failing document only")
	require.Len(t, completed, 1)
	assert.Equal(t, 4, completed[0].Count)

	for _, id := range []string{"d1", "d2", "d4", "d5"} {
		_, ok := remote.stored(id)
		assert.True(t, ok, "document %s should have been pushed", id)
	}
	_, ok := remote.stored("d3")
	assert.False(t, ok)
}

func TestPerformFullSync_RefusesOverlappingRuns(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	e := newTestEngine(t, r, remote, newFixedClock(t0))
	ctx := context.Background()

	seedLocal(t, r, &models.Document{
		ID: "d1", OwnerID: "u1", Kind: models.KindDraft, Content: "c", Version: 1, LastModified: t0,
	})

	entered := make(chan struct{})
	release := make(chan struct{})
	remote.mu.Lock()
	remote.getHook = func(id string) (*api.Document, error) {
		close(entered)
		<-release
		return nil, common.ErrNotFound
	}
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.PerformFullSync(ctx, "u1") }()
	<-entered

	assert.ErrorIs(t, e.PerformFullSync(ctx, "u1"), common.ErrSyncInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestInitialize_Cleanup(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	var initialized int
	e.On(EventInitialized, func(Event) { initialized++ })

	require.NoError(t, e.Initialize(ctx, "u1"))
	deviceID := e.DeviceID()
	require.NotEmpty(t, deviceID)

	// device record registered remotely
	remote.mu.Lock()
	_, registered := remote.devices[deviceID]
	remote.mu.Unlock()
	assert.True(t, registered)

	// idempotent
	require.NoError(t, e.Initialize(ctx, "u1"))
	assert.Equal(t, 1, initialized)

	e.Cleanup()
	e.Cleanup() // safe to call twice

	// the device id is generated once and survives re-initialization
	e2 := newTestEngine(t, r, remote, clock)
	require.NoError(t, e2.Initialize(ctx, "u1"))
	assert.Equal(t, deviceID, e2.DeviceID())
	e2.Cleanup()
}

func TestStatus(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	_, err := e.Status(ctx)
	assert.ErrorIs(t, err, common.ErrNotInitialized)

	require.NoError(t, e.Initialize(ctx, "u1"))
	defer e.Cleanup()

	require.NoError(t, e.SaveLocal(ctx, &models.Document{
		OwnerID: "u1", Kind: models.KindWill, Title: "T", Content: "C",
	}))

	st, err := e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.PendingCount, "never-synced documents count as pending")
	assert.Nil(t, st.LastFullSync)
	assert.Empty(t, st.Conflicts)

	require.NoError(t, e.PerformFullSync(ctx, "u1"))

	st, err = e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.PendingCount)
	require.NotNil(t, st.LastFullSync)
	assert.True(t, st.LastFullSync.Equal(t0))
}

func TestSaveLocal_RejectsUnknownKind(t *testing.T) {
	r := setupRepos(t)
	e := newTestEngine(t, r, newFakeRemote(), newFixedClock(t0))

	err := e.SaveLocal(context.Background(), &models.Document{Kind: "shopping_list"})
	assert.ErrorIs(t, err, common.ErrUnknownKind)
}

func TestEnableOfflineMode(t *testing.T) {
	r := setupRepos(t)
	remote := newFakeRemote()
	remote.pack = api.ReferencePack{
		Templates: []api.Template{{ID: "t1", Jurisdiction: "CZ", Kind: "will", Title: "Standard will"}},
		ValidationRules: []api.ValidationRule{
			{ID: "r1", Jurisdiction: "CZ", Field: "executor", Rule: "required", Message: "executor is required"},
		},
	}
	clock := newFixedClock(t0)
	e := newTestEngine(t, r, remote, clock)
	ctx := context.Background()

	_, err := e.OfflinePack(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, e.EnableOfflineMode(ctx))

	pack, err := e.OfflinePack(ctx)
	require.NoError(t, err)
	require.Len(t, pack.Templates, 1)
	assert.Equal(t, "Standard will", pack.Templates[0].Title)
	require.Len(t, pack.ValidationRules, 1)
	assert.True(t, pack.FetchedAt.Equal(t0))
}
