// Package grpc exposes the recipebook services over gRPC. Messages are
// plain Go structs carried by a JSON codec, so the service descriptor is
// written by hand instead of generated.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
	"google.golang.org/grpc"
)

type UserService interface {
	Register(ctx context.Context, username, password string, role models.Role) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	List(ctx context.Context, viewer models.Viewer) ([]models.User, error)
	Delete(ctx context.Context, id string, viewer models.Viewer) error
}

type RecipeService interface {
	Save(ctx context.Context, owner models.Viewer, draft *models.RecipeDraft) services.SyncResult
	Update(ctx context.Context, recipeID string, viewer models.Viewer, draft *models.RecipeDraft) services.SyncResult
	Delete(ctx context.Context, recipeID string, viewer models.Viewer) services.SyncResult
}

type WorkflowService interface {
	Get(ctx context.Context, recipeID string, viewer models.Viewer) (*models.RecipeDetail, error)
	List(ctx context.Context, viewer models.Viewer, filter models.RecipeFilter) ([]models.Recipe, error)
	Transition(ctx context.Context, recipeID string, target string, viewer models.Viewer) services.TransitionResult
	ForceStatus(ctx context.Context, recipeID string, target string, viewer models.Viewer) services.TransitionResult
}

type CatalogService interface {
	Search(ctx context.Context, query string) ([]models.Ingredient, error)
	List(ctx context.Context, categoryID string) ([]models.Ingredient, error)
	CreateIngredient(ctx context.Context, name string, categoryID *string, viewer models.Viewer) (*models.Ingredient, error)
	UpdateIngredient(ctx context.Context, id, name string, categoryID *string, viewer models.Viewer) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id string, viewer models.Viewer) error
}

type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, name string, viewer models.Viewer) (*models.Category, error)
	Update(ctx context.Context, id, name string, viewer models.Viewer) (*models.Category, error)
	Delete(ctx context.Context, id string, viewer models.Viewer) error
}

type ImageService interface {
	UploadURL(ctx context.Context, viewer models.Viewer) (*services.ImageUpload, error)
}

// Services bundles the collaborators the server dispatches to.
type Services struct {
	Users      UserService
	Recipes    RecipeService
	Workflow   WorkflowService
	Catalog    CatalogService
	Categories CategoryService
	Images     ImageService
}

type GRPCServer struct {
	address    string
	logger     logging.Logger
	jwtSecret  []byte
	users      UserService
	recipes    RecipeService
	workflow   WorkflowService
	catalog    CatalogService
	categories CategoryService
	images     ImageService
}

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		jwtSecret:  []byte(secretKey),
		users:      svc.Users,
		recipes:    svc.Recipes,
		workflow:   svc.Workflow,
		catalog:    svc.Catalog,
		categories: svc.Categories,
		images:     svc.Images,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.serve(ctx, listen)
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.viewerInterceptor))
	srv.RegisterService(&serviceDesc, s)
	return srv
}

// serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
