package categories

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
	Update(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}
