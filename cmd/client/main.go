package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/strongholdapp/docsync/internal/client/cli"
	"github.com/strongholdapp/docsync/internal/client/config"
	"github.com/strongholdapp/docsync/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
