package sync

import (
	stdsync "sync"
	"time"

	"github.com/strongholdapp/docsync/internal/client/models"
)

// EventKind identifies an engine event.
type EventKind string

const (
	EventInitialized      EventKind = "initialized"
	EventDocumentSynced   EventKind = "documentSynced"
	EventConflictDetected EventKind = "conflictDetected"
	EventOnline           EventKind = "online"
	EventOffline          EventKind = "offline"
	EventSyncCompleted    EventKind = "syncCompleted"
	EventSyncFailed       EventKind = "syncFailed"
)

// Event is the single typed payload delivered to handlers. Fields are set
// according to Kind: DocumentID on documentSynced/syncFailed, Conflict on
// conflictDetected, Count on syncCompleted, Err on syncFailed.
type Event struct {
	Kind       EventKind
	DocumentID string
	Conflict   *models.SyncConflict
	Count      int
	Err        error
	At         time.Time
}

// Handler receives events synchronously, in registration order.
type Handler func(Event)

type subscription struct {
	id int64
	fn Handler
}

// bus is a minimal typed publish/subscribe. Delivery is synchronous and
// best-effort: a panicking handler is recovered so later handlers still run.
type bus struct {
	mu   stdsync.Mutex
	subs map[EventKind][]subscription
	next int64
}

func newBus() *bus {
	return &bus{subs: make(map[EventKind][]subscription)}
}

func (b *bus) on(kind EventKind, fn Handler) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs[kind] = append(b.subs[kind], subscription{id: b.next, fn: fn})
	return b.next
}

func (b *bus) off(kind EventKind, id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *bus) emit(ev Event) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs[ev.Kind]))
	copy(subs, b.subs[ev.Kind])
	b.mu.Unlock()

	for _, s := range subs {
		func() {
			defer func() { _ = recover() }()
			s.fn(ev)
		}()
	}
}

func (b *bus) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[EventKind][]subscription)
}
