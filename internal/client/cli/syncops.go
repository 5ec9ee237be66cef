package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/strongholdapp/docsync/internal/client/models"
	"github.com/strongholdapp/docsync/internal/common"
)

func (a *App) sync(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	if err := a.engine.PerformFullSync(ctx, a.userName); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			fmt.Println("A sync is already running.")
			return
		}
		fmt.Println("Sync failed:", err)
		return
	}
	fmt.Println("Sync complete.")
}

func (a *App) status(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	st, err := a.engine.Status(ctx)
	if err != nil {
		fmt.Println("Status failed:", err)
		return
	}

	online := "offline"
	if st.IsOnline {
		online = "online"
	}
	fmt.Println("Connection:  ", online)
	if st.LastFullSync != nil {
		fmt.Println("Last sync:   ", st.LastFullSync.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Last sync:    never")
	}
	fmt.Println("Pending:     ", st.PendingCount)
	fmt.Println("Conflicts:   ", len(st.Conflicts))
}

func (a *App) conflicts(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	list, err := a.repos.Conflicts.List(ctx)
	if err != nil {
		fmt.Println("Listing conflicts failed:", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No conflicts.")
		return
	}
	for _, c := range list {
		fmt.Printf("%s  document %s  (%s)  detected %s\n",
			c.ID, c.DocumentID, c.Kind, c.DetectedAt.Format("2006-01-02 15:04:05"))
	}
}

func (a *App) resolve(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: resolve <conflict-id> <keep_local|keep_remote|merge>")
		return
	}

	res, err := a.engine.Resolve(ctx, args[0], models.ResolutionStrategy(args[1]))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("No such conflict.")
			return
		}
		fmt.Println("Resolve failed:", err)
		return
	}
	fmt.Printf("Resolved; document %s is now at version %d.\n", res.DocumentID, res.Version)
}

func (a *App) offline(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	if err := a.engine.EnableOfflineMode(ctx); err != nil {
		fmt.Println("Preparing offline mode failed:", err)
		return
	}
	pack, err := a.engine.OfflinePack(ctx)
	if err != nil {
		fmt.Println("Reading the cached reference pack failed:", err)
		return
	}
	fmt.Printf("Offline pack ready: %d templates, %d validation rules (fetched %s).\n",
		len(pack.Templates), len(pack.ValidationRules), pack.FetchedAt.Format("2006-01-02 15:04:05"))
}
