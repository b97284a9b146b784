package ingredients

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type Repository interface {
	Resolve(ctx context.Context, name string) (string, error)
	Get(ctx context.Context, id string) (*models.Ingredient, error)
	Search(ctx context.Context, query string, limit int) ([]models.Ingredient, error)
	List(ctx context.Context, categoryID string) ([]models.Ingredient, error)
	Create(ctx context.Context, name string, categoryID *string) (*models.Ingredient, error)
	Update(ctx context.Context, ing *models.Ingredient) error
	Delete(ctx context.Context, id string) error
}
