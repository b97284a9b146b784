package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/categories"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/ingredients"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/users"
	"github.com/dmitrijs2005/recipebook/internal/server/workflow"
)

// -------- in-memory store --------

// memStore backs the fake repositories. Writes apply immediately; tests
// check transaction boundaries through sqlmock expectations.
type memStore struct {
	seq         int
	recipes     map[string]models.Recipe
	lines       map[string][]models.IngredientLine
	ingredients map[string]string // name -> id
	categories  map[string]string // id -> name
	ingCats     map[string]string // ingredient id -> category id
	users       map[string]*models.User

	resolveErrs   []error // returned by Resolve before it succeeds
	resolveCalls  int
	replaceErr    error
	deleteErr     error
	updateOwners  []string
	statusErr     error
	lastListQuery models.RecipeFilter
}

func newMemStore() *memStore {
	return &memStore{
		recipes:     map[string]models.Recipe{},
		lines:       map[string][]models.IngredientLine{},
		ingredients: map[string]string{},
		categories:  map[string]string{},
		ingCats:     map[string]string{},
		users:       map[string]*models.User{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) put(r models.Recipe) {
	s.recipes[r.ID] = r
}

type fakeRecipesRepo struct {
	recipes.Repository
	s *memStore
}

func (f *fakeRecipesRepo) Create(ctx context.Context, r *models.Recipe) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	r.ID = f.s.nextID("recipe")
	f.s.recipes[r.ID] = *r
	return r.ID, nil
}

func (f *fakeRecipesRepo) Update(ctx context.Context, r *models.Recipe, ownerID string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	f.s.updateOwners = append(f.s.updateOwners, ownerID)
	cur, ok := f.s.recipes[r.ID]
	if !ok || cur.UserID != ownerID {
		return common.ErrNotFoundOrForbidden
	}
	r.UserID = cur.UserID
	f.s.recipes[r.ID] = *r
	return nil
}

func (f *fakeRecipesRepo) ReplaceLines(ctx context.Context, recipeID string, lines []models.IngredientLine) error {
	if f.s.replaceErr != nil {
		return f.s.replaceErr
	}
	for i := range lines {
		lines[i].RecipeID = recipeID
		lines[i].Position = i + 1
		if err := lines[i].Validate(); err != nil {
			return err
		}
	}
	f.s.lines[recipeID] = append([]models.IngredientLine(nil), lines...)
	return nil
}

func (f *fakeRecipesRepo) Delete(ctx context.Context, recipeID string) error {
	if f.s.deleteErr != nil {
		return f.s.deleteErr
	}
	if _, ok := f.s.recipes[recipeID]; !ok {
		return common.ErrNotFound
	}
	delete(f.s.lines, recipeID)
	delete(f.s.recipes, recipeID)
	return nil
}

func (f *fakeRecipesRepo) DeleteByOwner(ctx context.Context, userID string) (int64, error) {
	var n int64
	for id, r := range f.s.recipes {
		if r.UserID == userID {
			delete(f.s.lines, id)
			delete(f.s.recipes, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRecipesRepo) Get(ctx context.Context, recipeID string) (*models.Recipe, error) {
	r, ok := f.s.recipes[recipeID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRecipesRepo) Lines(ctx context.Context, recipeID string) ([]models.IngredientLine, error) {
	names := map[string]string{}
	for name, id := range f.s.ingredients {
		names[id] = name
	}
	var out []models.IngredientLine
	for _, l := range f.s.lines[recipeID] {
		if l.IngredientID != nil {
			l.Name = names[*l.IngredientID]
		} else if l.CustomName != nil {
			l.Name = *l.CustomName
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRecipesRepo) List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	f.s.lastListQuery = filter
	var out []models.Recipe
	for _, r := range f.s.recipes {
		for _, st := range filter.Statuses {
			if r.Status == st && (filter.OwnerID == "" || r.UserID == filter.OwnerID) {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRecipesRepo) UpdateStatus(ctx context.Context, recipeID string, from, to models.Status) error {
	if f.s.statusErr != nil {
		return f.s.statusErr
	}
	r, ok := f.s.recipes[recipeID]
	if !ok || r.Status != from {
		return common.ErrNotFound
	}
	r.Status = to
	f.s.recipes[recipeID] = r
	return nil
}

func (f *fakeRecipesRepo) SetStatus(ctx context.Context, recipeID string, to models.Status) error {
	if f.s.statusErr != nil {
		return f.s.statusErr
	}
	r, ok := f.s.recipes[recipeID]
	if !ok {
		return common.ErrNotFound
	}
	r.Status = to
	f.s.recipes[recipeID] = r
	return nil
}

type fakeIngredientsRepo struct {
	ingredients.Repository
	s *memStore

	searchQuery string
	searchLimit int
	searchErr   error
}

func (f *fakeIngredientsRepo) Resolve(ctx context.Context, name string) (string, error) {
	f.s.resolveCalls++
	if len(f.s.resolveErrs) > 0 {
		err := f.s.resolveErrs[0]
		f.s.resolveErrs = f.s.resolveErrs[1:]
		return "", err
	}
	if id, ok := f.s.ingredients[name]; ok {
		return id, nil
	}
	id := f.s.nextID("ing")
	f.s.ingredients[name] = id
	return id, nil
}

func (f *fakeIngredientsRepo) Search(ctx context.Context, query string, limit int) ([]models.Ingredient, error) {
	f.searchQuery, f.searchLimit = query, limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []models.Ingredient
	for name, id := range f.s.ingredients {
		if strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
			out = append(out, models.Ingredient{ID: id, Name: name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIngredientsRepo) List(ctx context.Context, categoryID string) ([]models.Ingredient, error) {
	return f.Search(ctx, "", len(f.s.ingredients))
}

func (f *fakeIngredientsRepo) nameOf(id string) (string, bool) {
	for name, iid := range f.s.ingredients {
		if iid == id {
			return name, true
		}
	}
	return "", false
}

func (f *fakeIngredientsRepo) Get(ctx context.Context, id string) (*models.Ingredient, error) {
	name, ok := f.nameOf(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	ing := &models.Ingredient{ID: id, Name: name}
	if cat, ok := f.s.ingCats[id]; ok {
		catName := f.s.categories[cat]
		ing.CategoryID, ing.CategoryName = &cat, &catName
	}
	return ing, nil
}

func (f *fakeIngredientsRepo) Create(ctx context.Context, name string, categoryID *string) (*models.Ingredient, error) {
	if _, ok := f.s.ingredients[name]; ok {
		return nil, fmt.Errorf("ingredient %q: %w", name, common.ErrAlreadyExists)
	}
	if categoryID != nil {
		if _, ok := f.s.categories[*categoryID]; !ok {
			return nil, fmt.Errorf("%w: unknown category", common.ErrValidation)
		}
	}
	id := f.s.nextID("ing")
	f.s.ingredients[name] = id
	if categoryID != nil {
		f.s.ingCats[id] = *categoryID
	}
	return &models.Ingredient{ID: id, Name: name, CategoryID: categoryID}, nil
}

func (f *fakeIngredientsRepo) Update(ctx context.Context, ing *models.Ingredient) error {
	old, ok := f.nameOf(ing.ID)
	if !ok {
		return common.ErrNotFound
	}
	if id, taken := f.s.ingredients[ing.Name]; taken && id != ing.ID {
		return fmt.Errorf("ingredient %q: %w", ing.Name, common.ErrAlreadyExists)
	}
	if ing.CategoryID != nil {
		if _, ok := f.s.categories[*ing.CategoryID]; !ok {
			return fmt.Errorf("%w: unknown category", common.ErrValidation)
		}
	}
	delete(f.s.ingredients, old)
	f.s.ingredients[ing.Name] = ing.ID
	delete(f.s.ingCats, ing.ID)
	if ing.CategoryID != nil {
		f.s.ingCats[ing.ID] = *ing.CategoryID
	}
	return nil
}

func (f *fakeIngredientsRepo) Delete(ctx context.Context, id string) error {
	name, ok := f.nameOf(id)
	if !ok {
		return common.ErrNotFound
	}
	for _, lines := range f.s.lines {
		for _, l := range lines {
			if l.IngredientID != nil && *l.IngredientID == id {
				return fmt.Errorf("ingredient is used by recipes: %w", common.ErrConstraintViolation)
			}
		}
	}
	delete(f.s.ingredients, name)
	delete(f.s.ingCats, id)
	return nil
}

type fakeCategoriesRepo struct {
	categories.Repository
	s *memStore
}

func (f *fakeCategoriesRepo) List(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	for id, name := range f.s.categories {
		out = append(out, models.Category{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoriesRepo) Create(ctx context.Context, name string) (*models.Category, error) {
	for _, n := range f.s.categories {
		if n == name {
			return nil, common.ErrAlreadyExists
		}
	}
	id := f.s.nextID("cat")
	f.s.categories[id] = name
	return &models.Category{ID: id, Name: name}, nil
}

func (f *fakeCategoriesRepo) Update(ctx context.Context, id, name string) error {
	if _, ok := f.s.categories[id]; !ok {
		return common.ErrNotFound
	}
	for cid, n := range f.s.categories {
		if n == name && cid != id {
			return common.ErrAlreadyExists
		}
	}
	f.s.categories[id] = name
	return nil
}

func (f *fakeCategoriesRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.s.categories[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.s.categories, id)
	return nil
}

type fakeUsersRepo struct {
	users.Repository
	s *memStore

	getErr    error
	deleteErr error
	deleted   []string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := f.s.users[u.UserName]; ok {
		return nil, common.ErrAlreadyExists
	}
	u.ID = f.s.nextID("user")
	f.s.users[u.UserName] = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.s.users[login]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []models.User
	for _, u := range f.s.users {
		out = append(out, models.User{ID: u.ID, UserName: u.UserName, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for name, u := range f.s.users {
		if u.ID == id {
			delete(f.s.users, name)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	r *fakeRecipesRepo
	i *fakeIngredientsRepo
	c *fakeCategoriesRepo
	u *fakeUsersRepo
}

func newFakeRepoManager(s *memStore) *fakeRepoManager {
	return &fakeRepoManager{
		r: &fakeRecipesRepo{s: s},
		i: &fakeIngredientsRepo{s: s},
		c: &fakeCategoriesRepo{s: s},
		u: &fakeUsersRepo{s: s},
	}
}

func (m *fakeRepoManager) Recipes(db dbx.DBTX) recipes.Repository         { return m.r }
func (m *fakeRepoManager) Ingredients(db dbx.DBTX) ingredients.Repository { return m.i }
func (m *fakeRepoManager) Categories(db dbx.DBTX) categories.Repository   { return m.c }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository             { return m.u }

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:       "k",
		ResubmitPolicy:  string(workflow.ResubmitOnEdit),
		ResolveAttempts: 3,
		S3Region:        "us-east-1",
		S3RootUser:      "x",
		S3RootPassword:  "y",
		S3BaseEndpoint:  "http://127.0.0.1:9000",
		S3Bucket:        "recipe-images",
	}
}

func noBackOff(t *testing.T) {
	t.Helper()
	orig := newResolveBackOff
	newResolveBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	t.Cleanup(func() { newResolveBackOff = orig })
}

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	store    *memStore
	rm       *fakeRepoManager
	catalog  *CatalogService
	sync     *RecipeSyncService
	workflow *WorkflowService
}

func newFixture(t *testing.T, policy workflow.ResubmitPolicy) *fixture {
	t.Helper()
	noBackOff(t)

	db, mock := newSQLMockDB(t)
	store := newMemStore()
	rm := newFakeRepoManager(store)
	log := logging.Discard()

	catalog := NewCatalogService(db, rm, testConfig(), log)
	return &fixture{
		db:       db,
		mock:     mock,
		store:    store,
		rm:       rm,
		catalog:  catalog,
		sync:     NewRecipeSyncService(db, rm, catalog, policy, log),
		workflow: NewWorkflowService(db, rm, log),
	}
}

func soupDraft() *models.RecipeDraft {
	return &models.RecipeDraft{
		Title:        "Soup",
		Instructions: "Boil water, add salt.",
		PrepTime:     5,
		CookTime:     20,
		Servings:     2,
		Status:       models.StatusPrivate,
		Lines: []models.RawLine{
			{Name: "Salt", Quantity: "1", Unit: "tsp"},
			{Name: "Water", Quantity: "2", Unit: "cups"},
		},
	}
}
