// Package cli implements the interactive client: a small REPL over the local
// document cache and the sync engine.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/strongholdapp/docsync/internal/client/client"
	"github.com/strongholdapp/docsync/internal/client/config"
	"github.com/strongholdapp/docsync/internal/client/models"
	syncengine "github.com/strongholdapp/docsync/internal/client/sync"
	"github.com/strongholdapp/docsync/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config   *config.Config
	repos    *client.Repositories
	api      client.API
	engine   *syncengine.Engine
	userName string
	reader   *bufio.Reader
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	repos, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	tokens := client.NewMetadataTokenStore(repos.Metadata)
	apiClient := client.NewHTTPClient(c.ServerURL, tokens)

	engine := syncengine.New(repos.Documents, repos.Metadata, repos.Conflicts, apiClient, logger, nil,
		syncengine.Config{
			SyncInterval: c.SyncInterval,
			PingInterval: c.PingInterval,
			Jurisdiction: c.Jurisdiction,
			DeviceName:   c.DeviceName,
			DeviceClass:  models.DeviceDesktop,
		})

	return &App{
		config: c,
		repos:  repos,
		api:    apiClient,
		engine: engine,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.close()
	a.Root(ctx)
}

func (a *App) close() {
	a.engine.Cleanup()
	_ = a.api.Close()
	_ = a.repos.DB.Close()
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}
