package recipes

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (string, error)
	Update(ctx context.Context, recipe *models.Recipe, ownerID string) error
	ReplaceLines(ctx context.Context, recipeID string, lines []models.IngredientLine) error
	Delete(ctx context.Context, recipeID string) error
	DeleteByOwner(ctx context.Context, userID string) (int64, error)
	Get(ctx context.Context, recipeID string) (*models.Recipe, error)
	Lines(ctx context.Context, recipeID string) ([]models.IngredientLine, error)
	List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error)
	UpdateStatus(ctx context.Context, recipeID string, from, to models.Status) error
	SetStatus(ctx context.Context, recipeID string, to models.Status) error
}
