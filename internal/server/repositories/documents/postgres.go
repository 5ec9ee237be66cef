// Package documents provides a PostgreSQL-backed repository for the
// authoritative document store.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/dbx"
	"github.com/strongholdapp/docsync/internal/server/models"
)

// PostgresRepository implements the documents repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const docColumns = "id, owner_id, kind, title, content, metadata, version, updated_at, deleted_at, origin_device_id"

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	doc := &models.Document{}
	var deletedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Kind, &doc.Title, &doc.Content,
		&doc.Metadata, &doc.Version, &doc.UpdatedAt, &deletedAt, &doc.OriginDeviceID)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		doc.DeletedAt = &t
	}
	return doc, nil
}

// GetByID returns the owner's document by id.
func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Document, error) {
	query := `
		SELECT ` + docColumns + ` FROM documents
		WHERE owner_id = $1 AND id = $2
	`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// Upsert writes the document, guarded so the stored version can only move
// forward. The WHERE clause on the conflict branch makes stale writes update
// zero rows, which is reported as common.ErrVersionConflict.
func (r *PostgresRepository) Upsert(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (` + docColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at,
			origin_device_id = EXCLUDED.origin_device_id
		WHERE documents.owner_id = EXCLUDED.owner_id
		  AND documents.version < EXCLUDED.version
	`
	var deletedAt sql.NullTime
	if doc.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *doc.DeletedAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.OwnerID, doc.Kind, doc.Title, doc.Content,
		doc.Metadata, doc.Version, doc.UpdatedAt, deletedAt, doc.OriginDeviceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrVersionConflict
	}
	return nil
}

// List returns the owner's documents, newest first, with an optional kind
// filter and an optional exclusive updated_at upper bound for cursor
// pagination.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, kind string, before *time.Time, limit int) ([]*models.Document, error) {
	query := `
		SELECT ` + docColumns + ` FROM documents
		WHERE owner_id = $1
		  AND ($2 = '' OR kind = $2)
		  AND ($3::timestamptz IS NULL OR updated_at < $3)
		ORDER BY updated_at DESC
		LIMIT $4
	`
	var cursor sql.NullTime
	if before != nil {
		cursor = sql.NullTime{Time: *before, Valid: true}
	}
	rows, err := r.db.QueryContext(ctx, query, ownerID, kind, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
