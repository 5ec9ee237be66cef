package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/strongholdapp/docsync/internal/netx"
)

// attach uploads a local file as an attachment blob: the server hands out a
// presigned PUT URL and the payload goes straight to object storage.
func (a *App) attach(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) == 0 {
		fmt.Println("Usage: attach <file>")
		return
	}

	payload, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Println("Reading file failed:", err)
		return
	}

	key, url, err := a.api.PresignPut(ctx)
	if err != nil {
		fmt.Println("Requesting upload URL failed:", err)
		return
	}
	if err := netx.UploadToPresignedURL(ctx, nil, url, payload); err != nil {
		fmt.Println("Upload failed:", err)
		return
	}
	fmt.Println("Uploaded as", key)
}

// fetch downloads an attachment blob by its storage key.
func (a *App) fetch(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: fetch <key> <file>")
		return
	}

	url, err := a.api.PresignGet(ctx, args[0])
	if err != nil {
		fmt.Println("Requesting download URL failed:", err)
		return
	}
	payload, err := netx.DownloadFromPresignedURL(ctx, nil, url)
	if err != nil {
		fmt.Println("Download failed:", err)
		return
	}
	if err := os.WriteFile(args[1], payload, 0o600); err != nil {
		fmt.Println("Writing file failed:", err)
		return
	}
	fmt.Printf("Saved %d bytes to %s\n", len(payload), args[1])
}
