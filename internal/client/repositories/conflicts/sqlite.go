// Package conflicts implements the durable conflict log on SQLite. Document
// snapshots are stored as JSON so the log survives schema-free.
package conflicts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/strongholdapp/docsync/internal/client/models"
	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, c *models.SyncConflict) error {
	local, err := json.Marshal(c.Local)
	if err != nil {
		return fmt.Errorf("failed to encode local snapshot: %w", err)
	}
	remote, err := json.Marshal(c.Remote)
	if err != nil {
		return fmt.Errorf("failed to encode remote snapshot: %w", err)
	}

	query := `INSERT INTO conflicts (id, document_id, local_doc, remote_doc, kind, detected_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.DocumentID, string(local), string(remote), string(c.Kind), c.DetectedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append conflict: %w", err)
	}
	return nil
}

func scanConflict(scan func(dest ...any) error) (*models.SyncConflict, error) {
	var (
		c             models.SyncConflict
		local, remote string
		kind          string
		detected      int64
	)
	if err := scan(&c.ID, &c.DocumentID, &local, &remote, &kind, &detected); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(local), &c.Local); err != nil {
		return nil, fmt.Errorf("failed to decode local snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(remote), &c.Remote); err != nil {
		return nil, fmt.Errorf("failed to decode remote snapshot: %w", err)
	}
	c.Kind = models.ConflictKind(kind)
	c.DetectedAt = time.Unix(0, detected).UTC()
	return &c, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.SyncConflict, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, document_id, local_doc, remote_doc, kind, detected_at FROM conflicts WHERE id = ?`, id)

	c, err := scanConflict(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select conflict: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.SyncConflict, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, local_doc, remote_doc, kind, detected_at FROM conflicts ORDER BY detected_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select conflicts: %w", err)
	}
	defer rows.Close()

	var result []models.SyncConflict
	for rows.Next() {
		c, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ExistsForDocument(ctx context.Context, documentID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conflicts WHERE document_id = ?`, documentID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count conflicts: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conflicts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conflict: %w", err)
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
