package grpc

import (
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type Empty struct{}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type SaveRecipeRequest struct {
	Recipe models.RecipeDraft `json:"recipe"`
}

type UpdateRecipeRequest struct {
	ID     string             `json:"id"`
	Recipe models.RecipeDraft `json:"recipe"`
}

// RecipeResponse names the recipe a save or update wrote.
type RecipeResponse struct {
	RecipeID string `json:"recipe_id"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type ListRecipesRequest struct {
	Filter models.RecipeFilter `json:"filter"`
}

type ListRecipesResponse struct {
	Recipes []models.Recipe `json:"recipes"`
}

// StatusRequest asks to move a recipe to Status. Status is kept as the raw
// client string so unknown values are reported as such.
type StatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type SearchIngredientsRequest struct {
	Query string `json:"query"`
}

type SearchIngredientsResponse struct {
	Ingredients []models.Ingredient `json:"ingredients"`
}

// ListIngredientsRequest lists the catalog. An empty CategoryID lists
// every ingredient.
type ListIngredientsRequest struct {
	CategoryID string `json:"category_id,omitempty"`
}

type ListCategoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type UpdateCategoryRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IngredientRequest creates or edits a catalog entry. ID is ignored on
// create; a nil CategoryID leaves the ingredient uncategorized.
type IngredientRequest struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	CategoryID *string `json:"category_id,omitempty"`
}

type ListUsersResponse struct {
	Users []models.User `json:"users"`
}

type ImageUploadResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
