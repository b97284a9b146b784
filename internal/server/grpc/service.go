package grpc

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "recipebook.RecipeBook"

// RecipeBookServer is the method set served under ServiceName.
type RecipeBookServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	SaveRecipe(context.Context, *SaveRecipeRequest) (*RecipeResponse, error)
	UpdateRecipe(context.Context, *UpdateRecipeRequest) (*RecipeResponse, error)
	DeleteRecipe(context.Context, *IDRequest) (*Empty, error)
	GetRecipe(context.Context, *IDRequest) (*models.RecipeDetail, error)
	ListRecipes(context.Context, *ListRecipesRequest) (*ListRecipesResponse, error)
	TransitionRecipe(context.Context, *StatusRequest) (*Empty, error)
	ForceRecipeStatus(context.Context, *StatusRequest) (*Empty, error)
	SearchIngredients(context.Context, *SearchIngredientsRequest) (*SearchIngredientsResponse, error)
	ListIngredients(context.Context, *ListIngredientsRequest) (*SearchIngredientsResponse, error)
	CreateIngredient(context.Context, *IngredientRequest) (*models.Ingredient, error)
	UpdateIngredient(context.Context, *IngredientRequest) (*models.Ingredient, error)
	DeleteIngredient(context.Context, *IDRequest) (*Empty, error)
	ListCategories(context.Context, *Empty) (*ListCategoriesResponse, error)
	CreateCategory(context.Context, *CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(context.Context, *UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(context.Context, *IDRequest) (*Empty, error)
	ListUsers(context.Context, *Empty) (*ListUsersResponse, error)
	DeleteUser(context.Context, *IDRequest) (*Empty, error)
	ImageUploadURL(context.Context, *Empty) (*ImageUploadResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecipeBookServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", RecipeBookServer.Register),
		unary("Login", RecipeBookServer.Login),
		unary("SaveRecipe", RecipeBookServer.SaveRecipe),
		unary("UpdateRecipe", RecipeBookServer.UpdateRecipe),
		unary("DeleteRecipe", RecipeBookServer.DeleteRecipe),
		unary("GetRecipe", RecipeBookServer.GetRecipe),
		unary("ListRecipes", RecipeBookServer.ListRecipes),
		unary("TransitionRecipe", RecipeBookServer.TransitionRecipe),
		unary("ForceRecipeStatus", RecipeBookServer.ForceRecipeStatus),
		unary("SearchIngredients", RecipeBookServer.SearchIngredients),
		unary("ListIngredients", RecipeBookServer.ListIngredients),
		unary("CreateIngredient", RecipeBookServer.CreateIngredient),
		unary("UpdateIngredient", RecipeBookServer.UpdateIngredient),
		unary("DeleteIngredient", RecipeBookServer.DeleteIngredient),
		unary("ListCategories", RecipeBookServer.ListCategories),
		unary("CreateCategory", RecipeBookServer.CreateCategory),
		unary("UpdateCategory", RecipeBookServer.UpdateCategory),
		unary("DeleteCategory", RecipeBookServer.DeleteCategory),
		unary("ListUsers", RecipeBookServer.ListUsers),
		unary("DeleteUser", RecipeBookServer.DeleteUser),
		unary("ImageUploadURL", RecipeBookServer.ImageUploadURL),
	},
	Streams: []grpc.StreamDesc{},
}

// FullMethod returns the method path clients invoke, e.g.
// "/recipebook.RecipeBook/SaveRecipe".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the method descriptor for a RecipeBookServer method: it
// decodes the request, then runs call through the server interceptor chain.
func unary[Req, Resp any](method string, call func(RecipeBookServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RecipeBookServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RecipeBookServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
