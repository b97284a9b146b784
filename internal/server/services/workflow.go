package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recipebook/internal/server/workflow"
)

// WorkflowService applies the read access rules and the status state
// machine to stored recipes.
type WorkflowService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewWorkflowService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *WorkflowService {
	return &WorkflowService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "workflow"),
	}
}

// Get returns a recipe with its lines if viewer may see it. Missing and
// hidden recipes both yield common.ErrNotFoundOrForbidden.
func (s *WorkflowService) Get(ctx context.Context, recipeID string, viewer models.Viewer) (*models.RecipeDetail, error) {
	repo := s.repomanager.Recipes(s.db)

	recipe, err := s.visible(ctx, s.db, recipeID, viewer)
	if err != nil {
		return nil, err
	}

	lines, err := repo.Lines(ctx, recipeID)
	if err != nil {
		s.logger.Error(ctx, "loading recipe lines failed", "recipe_id", recipeID, "error", err)
		return nil, common.ErrInternal
	}

	return &models.RecipeDetail{Recipe: *recipe, Lines: lines}, nil
}

// List returns the recipes matching filter that viewer may see. Requested
// statuses are narrowed to the visible set.
func (s *WorkflowService) List(ctx context.Context, viewer models.Viewer, filter models.RecipeFilter) ([]models.Recipe, error) {
	visible := s.VisibleStatusesFor(viewer, filter.OwnerID)

	if len(filter.Statuses) == 0 {
		filter.Statuses = visible
	} else {
		var statuses []models.Status
		for _, st := range filter.Statuses {
			if !st.Valid() {
				return nil, fmt.Errorf("%w: %q", common.ErrInvalidStatusValue, st)
			}
			for _, v := range visible {
				if st == v {
					statuses = append(statuses, st)
					break
				}
			}
		}
		filter.Statuses = statuses
	}

	items, err := s.repomanager.Recipes(s.db).List(ctx, filter)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		s.logger.Error(ctx, "listing recipes failed", "error", err)
		return nil, common.ErrInternal
	}
	return items, nil
}

// VisibleStatusesFor returns the status set list queries for viewer are
// filtered by.
func (s *WorkflowService) VisibleStatusesFor(viewer models.Viewer, ownerFilter string) []models.Status {
	return workflow.VisibleStatuses(viewer, ownerFilter)
}

// Transition moves a recipe along the status table. The write is
// conditional on the status read in the same transaction.
func (s *WorkflowService) Transition(ctx context.Context, recipeID string, target string, viewer models.Viewer) TransitionResult {
	to, err := models.ParseStatus(target)
	if err != nil {
		return s.failure(ctx, "transition", err)
	}

	var from models.Status
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.visible(ctx, tx, recipeID, viewer)
		if err != nil {
			return err
		}
		if err := workflow.CheckTransition(current, to, viewer); err != nil {
			return err
		}

		from = current.Status
		err = s.repomanager.Recipes(tx).UpdateStatus(ctx, recipeID, current.Status, to)
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: status changed concurrently", common.ErrInvalidTransition)
		}
		return err
	})
	if err != nil {
		return s.failure(ctx, "transition", err)
	}

	s.logger.Info(ctx, "recipe status changed", "recipe_id", recipeID, "from", from, "to", to, "by", viewer.ID)
	return TransitionResult{OK: true}
}

// ForceStatus sets any status on a recipe. Administrators only.
func (s *WorkflowService) ForceStatus(ctx context.Context, recipeID string, target string, viewer models.Viewer) TransitionResult {
	to, err := models.ParseStatus(target)
	if err != nil {
		return s.failure(ctx, "force", err)
	}
	if err := workflow.CheckForce(to, viewer); err != nil {
		return s.failure(ctx, "force", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := s.repomanager.Recipes(tx).SetStatus(ctx, recipeID, to)
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFoundOrForbidden
		}
		return err
	})
	if err != nil {
		return s.failure(ctx, "force", err)
	}

	s.logger.Info(ctx, "recipe status forced", "recipe_id", recipeID, "to", to, "by", viewer.ID)
	return TransitionResult{OK: true}
}

func (s *WorkflowService) visible(ctx context.Context, db dbx.DBTX, recipeID string, viewer models.Viewer) (*models.Recipe, error) {
	recipe, err := s.repomanager.Recipes(db).Get(ctx, recipeID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrForbidden
		}
		s.logger.Error(ctx, "loading recipe failed", "recipe_id", recipeID, "error", err)
		return nil, common.ErrInternal
	}
	if !workflow.CanView(recipe, viewer) {
		return nil, common.ErrNotFoundOrForbidden
	}
	return recipe, nil
}

func (s *WorkflowService) failure(ctx context.Context, op string, err error) TransitionResult {
	kind := transitionKind(err)
	if kind == KindPersistenceFailed {
		s.logger.Error(ctx, "recipe "+op+" failed", "error", err)
	}
	return TransitionResult{ErrorKind: kind, Detail: detail(op, kind, err)}
}
