// Package sync implements multi-device reconciliation of the local document
// cache with the remote document store: change detection, conflict detection
// and explicit resolution, periodic full syncs, and offline reference
// caching. Conflicting documents are never overwritten in either direction;
// a detected conflict is logged durably and waits for the caller's decision.
package sync

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/strongholdapp/docsync/internal/client/client"
	"github.com/strongholdapp/docsync/internal/client/models"
	"github.com/strongholdapp/docsync/internal/client/repositories/conflicts"
	"github.com/strongholdapp/docsync/internal/client/repositories/documents"
	"github.com/strongholdapp/docsync/internal/client/repositories/metadata"
	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/logging"
)

// Clock lets tests control time.
type Clock func() time.Time

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	SyncInterval time.Duration // periodic full sync, default 30s
	PingInterval time.Duration // online-status probe, default 3s
	Jurisdiction string        // reference-pack scope for offline mode
	DeviceName   string
	DeviceClass  models.DeviceClass
}

const (
	defaultSyncInterval = 30 * time.Second
	defaultPingInterval = 3 * time.Second
	pingTimeout         = 3 * time.Second
)

// Action says what a document sync did.
type Action string

const (
	ActionNone     Action = "unchanged"
	ActionPulled   Action = "pulled"
	ActionPushed   Action = "pushed"
	ActionConflict Action = "conflict"
)

// SyncResult reports the outcome of reconciling one document.
type SyncResult struct {
	DocumentID string
	Action     Action
	Version    int64
	Conflict   *models.SyncConflict
}

// Engine reconciles the local cache with the remote store. Construct with
// New, call Initialize once per owner, Cleanup when done. All dependencies
// are injected; there is no package-level state.
type Engine struct {
	docs        documents.Repository
	meta        metadata.Repository
	conflictLog conflicts.Repository
	remote      client.API
	log         logging.Logger
	now         Clock
	cfg         Config

	bus *bus

	mu          stdsync.Mutex
	initialized bool
	ownerID     string
	deviceID    string
	cancel      context.CancelFunc
	wg          stdsync.WaitGroup
	docLocks    map[string]*stdsync.Mutex

	fullSyncInFlight atomic.Bool
	online           atomic.Bool
}

// New wires an engine from its dependencies. now may be nil (wall clock).
func New(docs documents.Repository, meta metadata.Repository, conflictLog conflicts.Repository,
	remote client.API, log logging.Logger, now Clock, cfg Config) *Engine {

	if now == nil {
		now = time.Now
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.DeviceClass == "" {
		cfg.DeviceClass = models.DeviceDesktop
	}
	return &Engine{
		docs:        docs,
		meta:        meta,
		conflictLog: conflictLog,
		remote:      remote,
		log:         log,
		now:         now,
		cfg:         cfg,
		bus:         newBus(),
		docLocks:    map[string]*stdsync.Mutex{},
	}
}

// On subscribes a handler; the returned id is used with Off.
func (e *Engine) On(kind EventKind, fn Handler) int64 { return e.bus.on(kind, fn) }

// Off removes a subscription.
func (e *Engine) Off(kind EventKind, id int64) { e.bus.off(kind, id) }

func (e *Engine) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.bus.emit(ev)
}

// Initialize binds the engine to an owner: ensures a stable device id,
// registers the device remotely (best-effort — a failure is logged, not
// returned), and starts the online-status watcher and the periodic full-sync
// loop. Idempotent; a second call is a no-op.
func (e *Engine) Initialize(ctx context.Context, ownerID string) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return nil
	}

	deviceID, err := e.ensureDeviceID(ctx)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.deviceID = deviceID
	e.ownerID = ownerID

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.initialized = true
	e.wg.Add(2)
	e.mu.Unlock()

	// Registration is best-effort telemetry, not required for correctness.
	if err := e.registerDevice(ctx, ownerID, deviceID); err != nil {
		e.log.Warn(ctx, "device registration failed", "device_id", deviceID, "error", err)
	}

	go e.runWatcher(runCtx)
	go e.runSyncLoop(runCtx, ownerID)

	e.emit(Event{Kind: EventInitialized})
	e.log.Info(ctx, "sync engine initialized", "owner_id", ownerID, "device_id", deviceID)
	return nil
}

func (e *Engine) ensureDeviceID(ctx context.Context) (string, error) {
	b, err := e.meta.Get(ctx, metadata.KeyDeviceID)
	if err == nil {
		return string(b), nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}
	id := uuid.NewString()
	if err := e.meta.Set(ctx, metadata.KeyDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

func (e *Engine) registerDevice(ctx context.Context, ownerID, deviceID string) error {
	name := e.cfg.DeviceName
	if name == "" {
		name = runtime.GOOS + " device"
	}
	return e.remote.UpsertDevice(ctx, models.DeviceRecord{
		DeviceID:    deviceID,
		OwnerID:     ownerID,
		DisplayName: name,
		DeviceClass: e.cfg.DeviceClass,
		Platform:    runtime.GOOS,
		LastSeen:    e.now().UTC(),
		IsOnline:    true,
		SyncEnabled: true,
	}.ToWire())
}

// DeviceID returns the persisted device identity ("" before Initialize).
func (e *Engine) DeviceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deviceID
}

func (e *Engine) lockFor(id string) *stdsync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.docLocks[id]
	if !ok {
		l = &stdsync.Mutex{}
		e.docLocks[id] = l
	}
	return l
}

// SyncDocument reconciles one document with the remote store.
//
// Neither side changed: no-op. Exactly one side changed: that side's version
// is propagated to the other. Both sides changed since the last successful
// sync: a conflict is logged and emitted, and NOTHING is written to either
// store until the caller resolves it.
func (e *Engine) SyncDocument(ctx context.Context, documentID, ownerID string) (*SyncResult, error) {
	lock := e.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	local, err := e.docs.GetByID(ctx, documentID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	var remote *models.Document
	wire, err := e.remote.GetDocument(ctx, documentID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if wire != nil {
		remote = models.FromWire(*wire)
	}

	switch {
	case local == nil && remote == nil:
		return nil, common.ErrNotFound

	case local == nil:
		// First sight of a remote document on this device.
		return e.pull(ctx, remote)

	case remote == nil:
		// Local document the server has never seen.
		return e.pushNew(ctx, local)
	}

	if local.Deleted() || remote.Deleted() {
		return e.reconcileTombstone(ctx, local, remote)
	}

	localChanged := local.ModifiedSinceSync()
	remoteChanged := local.LastSyncedAt == nil || remote.LastModified.After(*local.LastSyncedAt)

	switch {
	case !localChanged && !remoteChanged:
		return &SyncResult{DocumentID: local.ID, Action: ActionNone, Version: local.Version}, nil

	case localChanged && !remoteChanged:
		return e.push(ctx, local, remote)

	case !localChanged && remoteChanged:
		return e.pull(ctx, remote)
	}

	// Both sides moved. Identical payloads are not a conflict, only a
	// missed bookkeeping update.
	if kind, same := diverged(local, remote); !same {
		return e.markConsistent(ctx, local, remote)
	} else {
		return e.escalate(ctx, local, remote, kind)
	}
}

// diverged compares the two copies and classifies the divergence.
func diverged(local, remote *models.Document) (models.ConflictKind, bool) {
	contentDiffers := local.Content != remote.Content || local.Title != remote.Title
	metadataDiffers := !reflect.DeepEqual(normalized(local.Metadata), normalized(remote.Metadata))

	switch {
	case contentDiffers && metadataDiffers:
		return models.ConflictBoth, true
	case contentDiffers:
		return models.ConflictContent, true
	case metadataDiffers:
		return models.ConflictMetadata, true
	}
	return "", false
}

func normalized(md map[string]any) map[string]any {
	if len(md) == 0 {
		return nil
	}
	return md
}

// pull copies the remote version over the local one.
func (e *Engine) pull(ctx context.Context, remote *models.Document) (*SyncResult, error) {
	now := e.now().UTC()
	doc := remote.Clone()
	doc.LastSyncedAt = &now
	if err := e.docs.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	e.emit(Event{Kind: EventDocumentSynced, DocumentID: doc.ID})
	return &SyncResult{DocumentID: doc.ID, Action: ActionPulled, Version: doc.Version}, nil
}

// pushNew uploads a document the server has never seen, keeping its version.
func (e *Engine) pushNew(ctx context.Context, local *models.Document) (*SyncResult, error) {
	if err := e.remote.UpsertDocument(ctx, local.ToWire()); err != nil {
		return nil, err
	}
	now := e.now().UTC()
	doc := local.Clone()
	doc.LastSyncedAt = &now
	if err := e.docs.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	e.emit(Event{Kind: EventDocumentSynced, DocumentID: doc.ID})
	return &SyncResult{DocumentID: doc.ID, Action: ActionPushed, Version: doc.Version}, nil
}

// push merges the local change onto the remote base and writes both stores.
// Remote first: if that write fails nothing has moved; if the local write
// fails afterwards, lastSyncedAt is not advanced and the next sync pulls the
// (identical) remote copy back into agreement.
func (e *Engine) push(ctx context.Context, local, remote *models.Document) (*SyncResult, error) {
	merged := Merge(local, remote, e.now())
	if err := e.remote.UpsertDocument(ctx, merged.ToWire()); err != nil {
		return nil, err
	}
	now := e.now().UTC()
	doc := merged.Clone()
	doc.LastSyncedAt = &now
	if err := e.docs.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	e.emit(Event{Kind: EventDocumentSynced, DocumentID: doc.ID})
	return &SyncResult{DocumentID: doc.ID, Action: ActionPushed, Version: doc.Version}, nil
}

// markConsistent records that both copies already agree.
func (e *Engine) markConsistent(ctx context.Context, local, remote *models.Document) (*SyncResult, error) {
	now := e.now().UTC()
	doc := local.Clone()
	if remote.Version > doc.Version {
		doc.Version = remote.Version
	}
	doc.LastSyncedAt = &now
	if err := e.docs.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	return &SyncResult{DocumentID: doc.ID, Action: ActionNone, Version: doc.Version}, nil
}

// escalate logs a conflict without touching either store. A divergence that
// is already in the log is not logged twice.
func (e *Engine) escalate(ctx context.Context, local, remote *models.Document, kind models.ConflictKind) (*SyncResult, error) {
	exists, err := e.conflictLog.ExistsForDocument(ctx, local.ID)
	if err != nil {
		return nil, err
	}

	c := &models.SyncConflict{
		ID:         uuid.NewString(),
		DocumentID: local.ID,
		Local:      local.Clone(),
		Remote:     remote.Clone(),
		Kind:       kind,
		DetectedAt: e.now().UTC(),
	}

	if !exists {
		if err := e.conflictLog.Append(ctx, c); err != nil {
			return nil, err
		}
		e.emit(Event{Kind: EventConflictDetected, DocumentID: local.ID, Conflict: c})
		e.log.Warn(ctx, "sync conflict detected",
			"document_id", local.ID, "kind", string(kind),
			"local_version", local.Version, "remote_version", remote.Version)
	}

	return &SyncResult{DocumentID: local.ID, Action: ActionConflict, Version: local.Version, Conflict: c}, nil
}

// reconcileTombstone propagates deletions. A delete racing a concurrent edit
// on the other side escalates instead of silently winning.
func (e *Engine) reconcileTombstone(ctx context.Context, local, remote *models.Document) (*SyncResult, error) {
	localChanged := local.ModifiedSinceSync()
	remoteChanged := local.LastSyncedAt == nil || remote.LastModified.After(*local.LastSyncedAt)

	switch {
	case local.Deleted() && remote.Deleted():
		// Both gone; align bookkeeping, last writer's tombstone stands.
		doc := local.Clone()
		if remote.DeletedAt.After(*local.DeletedAt) {
			doc.DeletedAt = remote.DeletedAt
		}
		if remote.Version > doc.Version {
			doc.Version = remote.Version
		}
		now := e.now().UTC()
		doc.LastSyncedAt = &now
		if err := e.docs.Upsert(ctx, doc); err != nil {
			return nil, err
		}
		return &SyncResult{DocumentID: doc.ID, Action: ActionNone, Version: doc.Version}, nil

	case local.Deleted():
		if remoteChanged {
			return e.escalate(ctx, local, remote, models.ConflictContent)
		}
		doc := local.Clone()
		doc.Version = maxVersion(local, remote) + 1
		if err := e.remote.UpsertDocument(ctx, doc.ToWire()); err != nil {
			return nil, err
		}
		now := e.now().UTC()
		doc.LastSyncedAt = &now
		if err := e.docs.Upsert(ctx, doc); err != nil {
			return nil, err
		}
		e.emit(Event{Kind: EventDocumentSynced, DocumentID: doc.ID})
		return &SyncResult{DocumentID: doc.ID, Action: ActionPushed, Version: doc.Version}, nil

	default: // remote deleted, local alive
		if localChanged {
			return e.escalate(ctx, local, remote, models.ConflictContent)
		}
		return e.pull(ctx, remote)
	}
}

// Resolve closes a logged conflict with an explicit caller decision and
// writes the agreed document to both stores.
func (e *Engine) Resolve(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) (*SyncResult, error) {
	c, err := e.conflictLog.GetByID(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	lock := e.lockFor(c.DocumentID)
	lock.Lock()
	defer lock.Unlock()

	var winner *models.Document
	switch strategy {
	case models.ResolveKeepLocal:
		winner = c.Local.Clone()
		winner.Version = maxVersion(c.Local, c.Remote) + 1
	case models.ResolveKeepRemote:
		winner = c.Remote.Clone()
		winner.Version = maxVersion(c.Local, c.Remote) + 1
	case models.ResolveMerge:
		winner = Merge(c.Local, c.Remote, e.now())
	default:
		return nil, errors.New("unknown resolution strategy: " + string(strategy))
	}
	winner.LastModified = e.now().UTC()

	if err := e.remote.UpsertDocument(ctx, winner.ToWire()); err != nil {
		return nil, err
	}
	now := e.now().UTC()
	winner.LastSyncedAt = &now
	if err := e.docs.Upsert(ctx, winner); err != nil {
		return nil, err
	}
	if err := e.conflictLog.Delete(ctx, c.ID); err != nil {
		return nil, err
	}

	e.emit(Event{Kind: EventDocumentSynced, DocumentID: winner.ID})
	e.log.Info(ctx, "conflict resolved",
		"document_id", winner.ID, "strategy", string(strategy), "version", winner.Version)
	return &SyncResult{DocumentID: winner.ID, Action: ActionPushed, Version: winner.Version}, nil
}

// PerformFullSync reconciles every locally known document. One document's
// failure does not abort the rest; each failure emits syncFailed. Overlapping
// runs are refused with common.ErrSyncInProgress.
func (e *Engine) PerformFullSync(ctx context.Context, ownerID string) error {
	if !e.fullSyncInFlight.CompareAndSwap(false, true) {
		return common.ErrSyncInProgress
	}
	defer e.fullSyncInFlight.Store(false)

	ids, err := e.docs.ListIDs(ctx, ownerID)
	if err != nil {
		return err
	}

	synced := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := e.SyncDocument(ctx, id, ownerID)
		if err != nil {
			e.log.Error(ctx, "document sync failed", "document_id", id, "error", err)
			e.emit(Event{Kind: EventSyncFailed, DocumentID: id, Err: err})
			continue
		}
		if res.Action != ActionConflict {
			synced++
		}
	}

	if err := e.meta.SetTime(ctx, metadata.KeyLastFullSync, e.now().UTC()); err != nil {
		e.log.Warn(ctx, "failed to record full-sync timestamp", "error", err)
	}

	e.emit(Event{Kind: EventSyncCompleted, Count: synced})
	return nil
}

// Status is a pure read of the engine state.
func (e *Engine) Status(ctx context.Context) (models.SyncStatus, error) {
	e.mu.Lock()
	ownerID := e.ownerID
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return models.SyncStatus{}, common.ErrNotInitialized
	}

	lastFull, err := e.meta.GetTime(ctx, metadata.KeyLastFullSync)
	if err != nil {
		return models.SyncStatus{}, err
	}
	pending, err := e.docs.CountPending(ctx, ownerID)
	if err != nil {
		return models.SyncStatus{}, err
	}
	list, err := e.conflictLog.List(ctx)
	if err != nil {
		return models.SyncStatus{}, err
	}

	return models.SyncStatus{
		IsOnline:     e.online.Load(),
		LastFullSync: lastFull,
		PendingCount: pending,
		Conflicts:    list,
	}, nil
}

// SaveLocal writes a local edit into the cache: stamps LastModified and the
// origin device, assigns an id and initial version to new documents, and
// leaves LastSyncedAt untouched so change detection sees the edit.
func (e *Engine) SaveLocal(ctx context.Context, doc *models.Document) error {
	if !models.ValidKind(doc.Kind) {
		return common.ErrUnknownKind
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	doc.LastModified = e.now().UTC()
	if id := e.DeviceID(); id != "" {
		doc.OriginDeviceID = id
	}
	return e.docs.Upsert(ctx, doc)
}

// DeleteLocal tombstones a document; the deletion propagates on next sync.
func (e *Engine) DeleteLocal(ctx context.Context, documentID string) error {
	return e.docs.MarkDeleted(ctx, documentID, e.now().UTC())
}

// Cleanup stops the watcher and sync loop, waits for them, and drops all
// subscriptions. Safe to call repeatedly.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.initialized = false
	e.ownerID = ""
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	e.bus.clear()
	e.online.Store(false)
}
