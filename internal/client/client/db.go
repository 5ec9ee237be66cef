package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/strongholdapp/docsync/internal/client/migrations"
	"github.com/strongholdapp/docsync/internal/client/repositories/conflicts"
	"github.com/strongholdapp/docsync/internal/client/repositories/documents"
	"github.com/strongholdapp/docsync/internal/client/repositories/metadata"
)

// Repositories bundles the local-store repositories the client wires up.
type Repositories struct {
	Documents documents.Repository
	Metadata  metadata.Repository
	Conflicts conflicts.Repository
	DB        *sql.DB
}

// RunMigrations applies the embedded goose migrations to the local database.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the local SQLite database at dsn, migrates
// it, and returns the repositories bound to it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Documents: documents.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
		Conflicts: conflicts.NewSQLiteRepository(db),
		DB:        db,
	}, nil
}
