package grpc

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Register creates a regular user account. Administrators are created with
// the admin command.
func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request")

	u, err := s.users.Register(ctx, req.Username, req.Password, models.RoleUser)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "username", u.UserName)
	return &RegisterResponse{UserID: u.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {

	token, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return &LoginResponse{AccessToken: token}, nil
}

func (s *GRPCServer) SaveRecipe(ctx context.Context, req *SaveRecipeRequest) (*RecipeResponse, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	res := s.recipes.Save(ctx, viewer, &req.Recipe)
	if !res.OK {
		return nil, kindError(res.ErrorKind, res.Detail)
	}
	return &RecipeResponse{RecipeID: res.RecipeID}, nil
}

func (s *GRPCServer) UpdateRecipe(ctx context.Context, req *UpdateRecipeRequest) (*RecipeResponse, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	res := s.recipes.Update(ctx, req.ID, viewer, &req.Recipe)
	if !res.OK {
		return nil, kindError(res.ErrorKind, res.Detail)
	}
	return &RecipeResponse{RecipeID: res.RecipeID}, nil
}

func (s *GRPCServer) DeleteRecipe(ctx context.Context, req *IDRequest) (*Empty, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	res := s.recipes.Delete(ctx, req.ID, viewer)
	if !res.OK {
		return nil, kindError(res.ErrorKind, res.Detail)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) GetRecipe(ctx context.Context, req *IDRequest) (*models.RecipeDetail, error) {
	d, err := s.workflow.Get(ctx, req.ID, viewerFrom(ctx))
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return d, nil
}

func (s *GRPCServer) ListRecipes(ctx context.Context, req *ListRecipesRequest) (*ListRecipesResponse, error) {
	items, err := s.workflow.List(ctx, viewerFrom(ctx), req.Filter)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &ListRecipesResponse{Recipes: items}, nil
}

func (s *GRPCServer) TransitionRecipe(ctx context.Context, req *StatusRequest) (*Empty, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	res := s.workflow.Transition(ctx, req.ID, req.Status, viewer)
	if !res.OK {
		return nil, kindError(res.ErrorKind, res.Detail)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) ForceRecipeStatus(ctx context.Context, req *StatusRequest) (*Empty, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	res := s.workflow.ForceStatus(ctx, req.ID, req.Status, viewer)
	if !res.OK {
		return nil, kindError(res.ErrorKind, res.Detail)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) SearchIngredients(ctx context.Context, req *SearchIngredientsRequest) (*SearchIngredientsResponse, error) {
	items, err := s.catalog.Search(ctx, req.Query)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &SearchIngredientsResponse{Ingredients: items}, nil
}

func (s *GRPCServer) ListIngredients(ctx context.Context, req *ListIngredientsRequest) (*SearchIngredientsResponse, error) {
	items, err := s.catalog.List(ctx, req.CategoryID)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &SearchIngredientsResponse{Ingredients: items}, nil
}

func (s *GRPCServer) CreateIngredient(ctx context.Context, req *IngredientRequest) (*models.Ingredient, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	ing, err := s.catalog.CreateIngredient(ctx, req.Name, req.CategoryID, viewer)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return ing, nil
}

func (s *GRPCServer) UpdateIngredient(ctx context.Context, req *IngredientRequest) (*models.Ingredient, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	ing, err := s.catalog.UpdateIngredient(ctx, req.ID, req.Name, req.CategoryID, viewer)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return ing, nil
}

func (s *GRPCServer) DeleteIngredient(ctx context.Context, req *IDRequest) (*Empty, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.DeleteIngredient(ctx, req.ID, viewer); err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) ListCategories(ctx context.Context, _ *Empty) (*ListCategoriesResponse, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &ListCategoriesResponse{Categories: items}, nil
}

func (s *GRPCServer) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.categories.Create(ctx, req.Name, viewer)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return c, nil
}

func (s *GRPCServer) UpdateCategory(ctx context.Context, req *UpdateCategoryRequest) (*models.Category, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.categories.Update(ctx, req.ID, req.Name, viewer)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return c, nil
}

func (s *GRPCServer) DeleteCategory(ctx context.Context, req *IDRequest) (*Empty, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.categories.Delete(ctx, req.ID, viewer); err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, _ *Empty) (*ListUsersResponse, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.users.List(ctx, viewer)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &ListUsersResponse{Users: items}, nil
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *IDRequest) (*Empty, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, req.ID, viewer); err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) ImageUploadURL(ctx context.Context, _ *Empty) (*ImageUploadResponse, error) {
	viewer, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.images.UploadURL(ctx, viewer)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &ImageUploadResponse{Path: u.Path, URL: u.URL}, nil
}
