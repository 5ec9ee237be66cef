package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/strongholdapp/docsync/internal/client/models"
	"github.com/strongholdapp/docsync/internal/common"
)

func (a *App) requireLogin() bool {
	if !a.isLoggedIn() {
		fmt.Println("Log in first.")
		return false
	}
	return true
}

func (a *App) add(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	kind := models.Kind(a.promptRequired("Kind (will/draft/template)"))
	title := a.promptRequired("Title")
	content := a.promptString("Content")

	doc := &models.Document{
		ID:      uuid.NewString(),
		OwnerID: a.userName,
		Kind:    kind,
		Title:   title,
		Content: content,
	}
	if err := a.engine.SaveLocal(ctx, doc); err != nil {
		if errors.Is(err, common.ErrUnknownKind) {
			fmt.Println("Unknown kind; use will, draft or template.")
			return
		}
		fmt.Println("Save failed:", err)
		return
	}
	fmt.Println("Saved", doc.ID)
}

func (a *App) list(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	docs, err := a.repos.Documents.List(ctx, a.userName)
	if err != nil {
		fmt.Println("List failed:", err)
		return
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return
	}
	for _, d := range docs {
		pending := ""
		if d.ModifiedSinceSync() {
			pending = " *"
		}
		fmt.Printf("%s  [%s] v%d  %s%s\n", d.ID, d.Kind, d.Version, d.Title, pending)
	}
}

func (a *App) show(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) == 0 {
		fmt.Println("Usage: show <id>")
		return
	}

	doc, err := a.repos.Documents.GetByID(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("No such document.")
			return
		}
		fmt.Println("Show failed:", err)
		return
	}

	fmt.Printf("ID:       %s\n", doc.ID)
	fmt.Printf("Kind:     %s\n", doc.Kind)
	fmt.Printf("Title:    %s\n", doc.Title)
	fmt.Printf("Version:  %d\n", doc.Version)
	fmt.Printf("Modified: %s\n", doc.LastModified.Format("2006-01-02 15:04:05"))
	if doc.Deleted() {
		fmt.Printf("Deleted:  %s\n", doc.DeletedAt.Format("2006-01-02 15:04:05"))
	}
	if doc.Content != "" {
		fmt.Println("---")
		fmt.Println(doc.Content)
	}
}

func (a *App) delete(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) == 0 {
		fmt.Println("Usage: delete <id>")
		return
	}

	if err := a.engine.DeleteLocal(ctx, args[0]); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("No such document.")
			return
		}
		fmt.Println("Delete failed:", err)
		return
	}
	fmt.Println("Deleted; the tombstone will propagate on the next sync.")
}
