package sync

import (
	"context"
	"time"
)

// runWatcher probes the remote endpoint on a fixed interval and flips the
// online flag, emitting online/offline on transitions. Modeled after the
// client's ping-based reachability watcher rather than OS-level signals so it
// reflects actual API reachability.
func (e *Engine) runWatcher(ctx context.Context) {
	defer e.wg.Done()

	e.checkOnline(ctx)

	t := time.NewTicker(e.cfg.PingInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.checkOnline(ctx)
		}
	}
}

func (e *Engine) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := e.remote.Ping(pctx)
	cancel()

	// Discard results that land after Cleanup.
	if ctx.Err() != nil {
		return
	}

	online := err == nil
	if prev := e.online.Swap(online); prev != online {
		if online {
			e.emit(Event{Kind: EventOnline})
			e.log.Info(ctx, "switched to online mode")
		} else {
			e.emit(Event{Kind: EventOffline})
			e.log.Info(ctx, "switched to offline mode", "error", err)
		}
	}
}

// runSyncLoop triggers a full sync on a fixed interval while online. A tick
// that fires while the previous run is still going is skipped by the
// in-flight guard inside PerformFullSync.
func (e *Engine) runSyncLoop(ctx context.Context, ownerID string) {
	defer e.wg.Done()

	t := time.NewTicker(e.cfg.SyncInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !e.online.Load() {
				continue
			}
			if err := e.PerformFullSync(ctx, ownerID); err != nil {
				if ctx.Err() != nil {
					return
				}
				e.log.Warn(ctx, "periodic sync skipped", "error", err)
			}
		}
	}
}
