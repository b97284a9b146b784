package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "test-secret"

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeUsers struct {
	UserService
	gotRole  models.Role
	user     *models.User
	token    string
	err      error
	loginErr error
	deleted  string
}

func (f *fakeUsers) Register(_ context.Context, username, _ string, role models.Role) (*models.User, error) {
	f.gotRole = role
	if f.err != nil {
		return nil, f.err
	}
	if f.user != nil {
		return f.user, nil
	}
	return &models.User{ID: "u-new", UserName: username, Role: role}, nil
}

func (f *fakeUsers) Login(context.Context, string, string) (string, error) {
	return f.token, f.loginErr
}

func (f *fakeUsers) List(_ context.Context, viewer models.Viewer) ([]models.User, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	return []models.User{{ID: "u1", UserName: "alice", PasswordHash: []byte("secret-hash"), Role: models.RoleUser}}, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string, viewer models.Viewer) error {
	if !viewer.IsAdmin() {
		return common.ErrAdminRequired
	}
	f.deleted = id
	return f.err
}

type fakeRecipes struct {
	RecipeService
	calls     int
	gotViewer models.Viewer
	gotID     string
	gotDraft  models.RecipeDraft
	result    services.SyncResult
}

func (f *fakeRecipes) Save(_ context.Context, owner models.Viewer, draft *models.RecipeDraft) services.SyncResult {
	f.calls++
	f.gotViewer = owner
	f.gotDraft = *draft
	return f.result
}

func (f *fakeRecipes) Update(_ context.Context, id string, viewer models.Viewer, draft *models.RecipeDraft) services.SyncResult {
	f.calls++
	f.gotID = id
	f.gotViewer = viewer
	f.gotDraft = *draft
	return f.result
}

func (f *fakeRecipes) Delete(_ context.Context, id string, viewer models.Viewer) services.SyncResult {
	f.calls++
	f.gotID = id
	f.gotViewer = viewer
	return f.result
}

type fakeWorkflow struct {
	WorkflowService
	gotViewer models.Viewer
	gotFilter models.RecipeFilter
	gotTarget string
	detail    *models.RecipeDetail
	recipes   []models.Recipe
	err       error
	result    services.TransitionResult
	panicMsg  string
}

func (f *fakeWorkflow) Get(_ context.Context, _ string, viewer models.Viewer) (*models.RecipeDetail, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.gotViewer = viewer
	return f.detail, f.err
}

func (f *fakeWorkflow) List(_ context.Context, viewer models.Viewer, filter models.RecipeFilter) ([]models.Recipe, error) {
	f.gotViewer = viewer
	f.gotFilter = filter
	return f.recipes, f.err
}

func (f *fakeWorkflow) Transition(_ context.Context, _ string, target string, viewer models.Viewer) services.TransitionResult {
	f.gotViewer = viewer
	f.gotTarget = target
	return f.result
}

func (f *fakeWorkflow) ForceStatus(_ context.Context, _ string, target string, viewer models.Viewer) services.TransitionResult {
	f.gotViewer = viewer
	f.gotTarget = target
	return f.result
}

type fakeCatalog struct {
	CatalogService
	gotQuery    string
	gotID       string
	gotName     string
	gotCategory *string
	items       []models.Ingredient
	err         error
}

func (f *fakeCatalog) Search(_ context.Context, q string) ([]models.Ingredient, error) {
	f.gotQuery = q
	return f.items, f.err
}

func (f *fakeCatalog) List(_ context.Context, categoryID string) ([]models.Ingredient, error) {
	f.gotQuery = categoryID
	return f.items, f.err
}

func (f *fakeCatalog) CreateIngredient(_ context.Context, name string, categoryID *string, viewer models.Viewer) (*models.Ingredient, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	f.gotName, f.gotCategory = name, categoryID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Ingredient{ID: "ing-1", Name: name, CategoryID: categoryID}, nil
}

func (f *fakeCatalog) UpdateIngredient(_ context.Context, id, name string, categoryID *string, viewer models.Viewer) (*models.Ingredient, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	f.gotID, f.gotName, f.gotCategory = id, name, categoryID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Ingredient{ID: id, Name: name, CategoryID: categoryID}, nil
}

func (f *fakeCatalog) DeleteIngredient(_ context.Context, id string, viewer models.Viewer) error {
	if !viewer.IsAdmin() {
		return common.ErrAdminRequired
	}
	f.gotID = id
	return f.err
}

type fakeCategories struct {
	CategoryService
	items []models.Category
	err   error
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	return f.items, f.err
}

func (f *fakeCategories) Create(_ context.Context, name string, viewer models.Viewer) (*models.Category, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	return &models.Category{ID: "c1", Name: name}, nil
}

func (f *fakeCategories) Update(_ context.Context, id, name string, viewer models.Viewer) (*models.Category, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Category{ID: id, Name: name}, nil
}

func (f *fakeCategories) Delete(_ context.Context, _ string, _ models.Viewer) error {
	return f.err
}

type fakeImages struct {
	ImageService
	gotViewer models.Viewer
}

func (f *fakeImages) UploadURL(_ context.Context, viewer models.Viewer) (*services.ImageUpload, error) {
	f.gotViewer = viewer
	return &services.ImageUpload{Path: "recipes/u1/2026/10/x", URL: "http://s3/put"}, nil
}

type fakes struct {
	users      *fakeUsers
	recipes    *fakeRecipes
	workflow   *fakeWorkflow
	catalog    *fakeCatalog
	categories *fakeCategories
	images     *fakeImages
}

func newFakes() *fakes {
	return &fakes{
		users:      &fakeUsers{},
		recipes:    &fakeRecipes{},
		workflow:   &fakeWorkflow{},
		catalog:    &fakeCatalog{},
		categories: &fakeCategories{},
		images:     &fakeImages{},
	}
}

func (f *fakes) services() Services {
	return Services{
		Users:      f.users,
		Recipes:    f.recipes,
		Workflow:   f.workflow,
		Catalog:    f.catalog,
		Categories: f.categories,
		Images:     f.images,
	}
}

// startBufServer serves f over an in-memory listener and returns a client
// connection using the JSON codec.
func startBufServer(t *testing.T, f *fakes) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("bufnet", nopLogger{}, f.services(), testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.serve(ctx, lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}
