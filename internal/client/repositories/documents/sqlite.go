// Package documents implements the local document cache on SQLite.
package documents

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"context"

	"github.com/strongholdapp/docsync/internal/client/models"
	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Timestamps are stored as unix nanoseconds; NULL means unset.

func nsOrNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

func (r *SQLiteRepository) Upsert(ctx context.Context, doc *models.Document) error {
	md, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := `INSERT INTO documents
			(id, owner_id, kind, title, content, metadata, version, last_modified, last_synced_at, deleted_at, origin_device_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			kind = excluded.kind,
			title = excluded.title,
			content = excluded.content,
			metadata = excluded.metadata,
			version = excluded.version,
			last_modified = excluded.last_modified,
			last_synced_at = excluded.last_synced_at,
			deleted_at = excluded.deleted_at,
			origin_device_id = excluded.origin_device_id
	`
	_, err = r.db.ExecContext(ctx, query,
		doc.ID, doc.OwnerID, string(doc.Kind), doc.Title, doc.Content, string(md),
		doc.Version, doc.LastModified.UnixNano(), nsOrNull(doc.LastSyncedAt),
		nsOrNull(doc.DeletedAt), doc.OriginDeviceID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func scanDocument(scan func(dest ...any) error) (*models.Document, error) {
	var (
		doc          models.Document
		kind, md     string
		lastModified int64
		syncedAt     sql.NullInt64
		deletedAt    sql.NullInt64
	)
	err := scan(&doc.ID, &doc.OwnerID, &kind, &doc.Title, &doc.Content, &md,
		&doc.Version, &lastModified, &syncedAt, &deletedAt, &doc.OriginDeviceID)
	if err != nil {
		return nil, err
	}
	doc.Kind = models.Kind(kind)
	doc.LastModified = time.Unix(0, lastModified).UTC()
	doc.LastSyncedAt = timeOrNil(syncedAt)
	doc.DeletedAt = timeOrNil(deletedAt)
	if err := json.Unmarshal([]byte(md), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &doc, nil
}

const docColumns = `id, owner_id, kind, title, content, metadata, version, last_modified, last_synced_at, deleted_at, origin_device_id`

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+docColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return doc, nil
}

func (r *SQLiteRepository) List(ctx context.Context, ownerID string) ([]models.Document, error) {
	query := `SELECT ` + docColumns + ` FROM documents WHERE owner_id = ? AND deleted_at IS NULL ORDER BY last_modified DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM documents WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select document ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE documents SET deleted_at = ?, last_modified = ? WHERE id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, at.UnixNano(), at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to mark document deleted: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE owner_id = ? AND last_synced_at IS NULL`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending documents: %w", err)
	}
	return n, nil
}
