// Package reference provides a PostgreSQL-backed repository for the
// jurisdiction reference data served to offline clients.
package reference

import (
	"context"
	"fmt"

	"github.com/strongholdapp/docsync/internal/dbx"
	"github.com/strongholdapp/docsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Templates returns the jurisdiction's document templates.
func (r *PostgresRepository) Templates(ctx context.Context, jurisdiction string) ([]*models.Template, error) {
	query := `
		SELECT id, jurisdiction, kind, title, body
		FROM templates
		WHERE jurisdiction = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Template
	for rows.Next() {
		t := &models.Template{}
		if err := rows.Scan(&t.ID, &t.Jurisdiction, &t.Kind, &t.Title, &t.Body); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// ValidationRules returns the jurisdiction's field-level validation rules.
func (r *PostgresRepository) ValidationRules(ctx context.Context, jurisdiction string) ([]*models.ValidationRule, error) {
	query := `
		SELECT id, jurisdiction, field, rule, message
		FROM validation_rules
		WHERE jurisdiction = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.ValidationRule
	for rows.Next() {
		v := &models.ValidationRule{}
		if err := rows.Scan(&v.ID, &v.Jurisdiction, &v.Field, &v.Rule, &v.Message); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
