package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// newResolveBackOff is a seam for tests.
var newResolveBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	return b
}

// CatalogService resolves typed ingredient names against the shared catalog
// and serves autocomplete.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	attempts    int
	logger      logging.Logger
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *CatalogService {
	attempts := cfg.ResolveAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &CatalogService{
		db:          db,
		repomanager: m,
		attempts:    attempts,
		logger:      l.With("module", "catalog"),
	}
}

// Resolve returns the catalog id for name on the given handle, creating
// the ingredient when it does not exist. A resolve that loses a race with a
// concurrent insert of the same name is retried and then finds the
// winner's row.
func (s *CatalogService) Resolve(ctx context.Context, db dbx.DBTX, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: ingredient name is empty", common.ErrValidation)
	}

	repo := s.repomanager.Ingredients(db)
	attempt := 0

	op := func() (string, error) {
		attempt++
		id, err := repo.Resolve(ctx, name)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, common.ErrConstraintViolation) {
			s.logger.Warn(ctx, "ingredient resolve lost a race", "name", name, "attempt", attempt)
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newResolveBackOff(), uint64(s.attempts-1)), ctx)
	return backoff.RetryWithData(op, b)
}

// Search returns up to common.MaxAutocompleteResults ingredients whose name
// contains query. Queries shorter than common.MinAutocompleteQueryLen
// characters return nothing.
func (s *CatalogService) Search(ctx context.Context, query string) ([]models.Ingredient, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < common.MinAutocompleteQueryLen {
		return []models.Ingredient{}, nil
	}

	items, err := s.repomanager.Ingredients(s.db).Search(ctx, query, common.MaxAutocompleteResults)
	if err != nil {
		s.logger.Error(ctx, "ingredient search failed", "error", err)
		return nil, common.ErrInternal
	}
	return items, nil
}

// List returns the catalog, optionally restricted to one category.
func (s *CatalogService) List(ctx context.Context, categoryID string) ([]models.Ingredient, error) {
	items, err := s.repomanager.Ingredients(s.db).List(ctx, categoryID)
	if err != nil {
		s.logger.Error(ctx, "ingredient list failed", "error", err)
		return nil, common.ErrInternal
	}
	return items, nil
}

// CreateIngredient adds a catalog entry. Admin only.
func (s *CatalogService) CreateIngredient(ctx context.Context, name string, categoryID *string, viewer models.Viewer) (*models.Ingredient, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	name, categoryID, err := normalizeIngredient(name, categoryID)
	if err != nil {
		return nil, err
	}

	ing, err := s.repomanager.Ingredients(s.db).Create(ctx, name, categoryID)
	if err != nil {
		return nil, s.adminFailure(ctx, "creating ingredient", err)
	}

	s.logger.Info(ctx, "ingredient created", "ingredient_id", ing.ID, "admin_id", viewer.ID)
	return ing, nil
}

// UpdateIngredient renames an ingredient and moves it between categories.
// Admin only. A nil categoryID leaves the ingredient uncategorized.
func (s *CatalogService) UpdateIngredient(ctx context.Context, id, name string, categoryID *string, viewer models.Viewer) (*models.Ingredient, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	name, categoryID, err := normalizeIngredient(name, categoryID)
	if err != nil {
		return nil, err
	}

	var updated *models.Ingredient
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Ingredients(tx)

		ing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		ing.Name = name
		ing.CategoryID = categoryID
		if err := repo.Update(ctx, ing); err != nil {
			return err
		}

		updated, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.adminFailure(ctx, "updating ingredient", err)
	}

	s.logger.Info(ctx, "ingredient updated", "ingredient_id", id, "admin_id", viewer.ID)
	return updated, nil
}

// DeleteIngredient removes an ingredient no recipe uses. Admin only.
func (s *CatalogService) DeleteIngredient(ctx context.Context, id string, viewer models.Viewer) error {
	if !viewer.IsAdmin() {
		return common.ErrAdminRequired
	}

	if err := s.repomanager.Ingredients(s.db).Delete(ctx, id); err != nil {
		return s.adminFailure(ctx, "deleting ingredient", err)
	}

	s.logger.Info(ctx, "ingredient deleted", "ingredient_id", id, "admin_id", viewer.ID)
	return nil
}

func (s *CatalogService) adminFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrNotFound) ||
		errors.Is(err, common.ErrAlreadyExists) ||
		errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrConstraintViolation) {
		return err
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return common.ErrInternal
}

func normalizeIngredient(name string, categoryID *string) (string, *string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("%w: ingredient name is required", common.ErrValidation)
	}
	if categoryID == nil {
		return name, nil, nil
	}

	id := strings.TrimSpace(*categoryID)
	if id == "" {
		return name, nil, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", nil, fmt.Errorf("%w: malformed category id", common.ErrValidation)
	}
	return name, &id, nil
}
