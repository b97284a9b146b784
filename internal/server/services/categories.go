package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

type CategoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCategoryService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *CategoryService {
	return &CategoryService{db: db, repomanager: m, logger: l.With("module", "categories")}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.repomanager.Categories(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "listing categories failed", "error", err)
		return nil, common.ErrInternal
	}
	return items, nil
}

func (s *CategoryService) Create(ctx context.Context, name string, viewer models.Viewer) (*models.Category, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", common.ErrValidation)
	}

	c, err := s.repomanager.Categories(s.db).Create(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		s.logger.Error(ctx, "creating category failed", "error", err)
		return nil, common.ErrInternal
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string, viewer models.Viewer) error {
	if !viewer.IsAdmin() {
		return common.ErrAdminRequired
	}

	err := s.repomanager.Categories(s.db).Delete(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		s.logger.Error(ctx, "deleting category failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// Update renames a category. Admin only.
func (s *CategoryService) Update(ctx context.Context, id, name string, viewer models.Viewer) (*models.Category, error) {
	if !viewer.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", common.ErrValidation)
	}

	err := s.repomanager.Categories(s.db).Update(ctx, id, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		s.logger.Error(ctx, "renaming category failed", "error", err)
		return nil, common.ErrInternal
	}
	return &models.Category{ID: id, Name: name}, nil
}
