package reference

import (
	"context"

	"github.com/strongholdapp/docsync/internal/server/models"
)

type Repository interface {
	Templates(ctx context.Context, jurisdiction string) ([]*models.Template, error)
	ValidationRules(ctx context.Context, jurisdiction string) ([]*models.ValidationRule, error)
}
