package repomanager

import (
	"context"
	"database/sql"

	"github.com/strongholdapp/docsync/internal/dbx"
	"github.com/strongholdapp/docsync/internal/server/repositories/devices"
	"github.com/strongholdapp/docsync/internal/server/repositories/documents"
	"github.com/strongholdapp/docsync/internal/server/repositories/reference"
	"github.com/strongholdapp/docsync/internal/server/repositories/refreshtokens"
	"github.com/strongholdapp/docsync/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so services can
// run them against the pool or inside a transaction interchangeably.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
	Devices(db dbx.DBTX) devices.Repository
	Reference(db dbx.DBTX) reference.Repository
}
