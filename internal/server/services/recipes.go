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

// RecipeSyncService writes recipe content together with its ingredient
// lines. Every call runs in one transaction: the recipe row, its lines and
// any catalog ingredients created on the way commit or roll back together.
// Failures are reported through SyncResult, never as errors.
type RecipeSyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	catalog     *CatalogService
	policy      workflow.ResubmitPolicy
	logger      logging.Logger
}

func NewRecipeSyncService(db *sql.DB, m repomanager.RepositoryManager, catalog *CatalogService,
	policy workflow.ResubmitPolicy, l logging.Logger) *RecipeSyncService {
	return &RecipeSyncService{
		db:          db,
		repomanager: m,
		catalog:     catalog,
		policy:      policy,
		logger:      l.With("module", "recipe_sync"),
	}
}

// Save creates a recipe owned by owner.
func (s *RecipeSyncService) Save(ctx context.Context, owner models.Viewer, draft *models.RecipeDraft) SyncResult {
	if err := prepare(draft); err != nil {
		return s.failure(ctx, "save", err)
	}
	if !owner.Authenticated() {
		return s.failure(ctx, "save", common.ErrNotFoundOrForbidden)
	}
	if err := checkImagePath(draft.ImagePath, owner.ID); err != nil {
		return s.failure(ctx, "save", err)
	}

	status, err := workflow.EditStatus(s.policy, nil, draft.Status, owner)
	if err != nil {
		return s.failure(ctx, "save", err)
	}

	var recipeID string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		recipe := draft.Recipe(owner.ID)
		recipe.Status = status

		id, err := repo.Create(ctx, recipe)
		if err != nil {
			return err
		}

		lines, err := s.resolveLines(ctx, tx, draft.Lines)
		if err != nil {
			return err
		}
		if err := repo.ReplaceLines(ctx, id, lines); err != nil {
			return err
		}

		recipeID = id
		return nil
	})
	if err != nil {
		return s.failure(ctx, "save", err)
	}

	s.logger.Info(ctx, "recipe saved", "recipe_id", recipeID, "user_id", owner.ID, "lines", len(draft.Lines))
	return SyncResult{OK: true, RecipeID: recipeID}
}

// Update replaces the content and the full ingredient list of a recipe.
// Owners edit their own recipes; administrators edit any recipe on behalf
// of its stored owner.
func (s *RecipeSyncService) Update(ctx context.Context, recipeID string, viewer models.Viewer, draft *models.RecipeDraft) SyncResult {
	if err := prepare(draft); err != nil {
		return s.failure(ctx, "update", err)
	}
	if !viewer.Authenticated() {
		return s.failure(ctx, "update", common.ErrNotFoundOrForbidden)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		current, err := s.editable(ctx, tx, recipeID, viewer)
		if err != nil {
			return err
		}
		if err := checkImagePath(draft.ImagePath, current.UserID); err != nil {
			return err
		}

		status, err := workflow.EditStatus(s.policy, &current.Status, draft.Status, viewer)
		if err != nil {
			return err
		}

		recipe := draft.Recipe(current.UserID)
		recipe.ID = recipeID
		recipe.Status = status

		ownerID := viewer.ID
		if viewer.IsAdmin() {
			ownerID = current.UserID
		}
		if err := repo.Update(ctx, recipe, ownerID); err != nil {
			return err
		}

		lines, err := s.resolveLines(ctx, tx, draft.Lines)
		if err != nil {
			return err
		}
		return repo.ReplaceLines(ctx, recipeID, lines)
	})
	if err != nil {
		return s.failure(ctx, "update", err)
	}

	s.logger.Info(ctx, "recipe updated", "recipe_id", recipeID, "user_id", viewer.ID, "lines", len(draft.Lines))
	return SyncResult{OK: true, RecipeID: recipeID}
}

// Delete removes a recipe and its lines. Only the owner or an
// administrator may delete.
func (s *RecipeSyncService) Delete(ctx context.Context, recipeID string, viewer models.Viewer) SyncResult {
	if !viewer.Authenticated() {
		return s.failure(ctx, "delete", common.ErrNotFoundOrForbidden)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.editable(ctx, tx, recipeID, viewer); err != nil {
			return err
		}
		return s.repomanager.Recipes(tx).Delete(ctx, recipeID)
	})
	if err != nil {
		return s.failure(ctx, "delete", err)
	}

	s.logger.Info(ctx, "recipe deleted", "recipe_id", recipeID, "user_id", viewer.ID)
	return SyncResult{OK: true, RecipeID: recipeID}
}

// editable loads a recipe the viewer may change. Missing and foreign
// recipes both yield common.ErrNotFoundOrForbidden.
func (s *RecipeSyncService) editable(ctx context.Context, tx dbx.DBTX, recipeID string, viewer models.Viewer) (*models.Recipe, error) {
	current, err := s.repomanager.Recipes(tx).Get(ctx, recipeID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, err
	}
	if !viewer.IsAdmin() && !viewer.Owns(current.UserID) {
		return nil, common.ErrNotFoundOrForbidden
	}
	return current, nil
}

// resolveLines turns raw lines into association rows. Explicit ids are
// trusted as picked through autocomplete; typed names go through the
// catalog unless marked custom; blank lines are skipped.
func (s *RecipeSyncService) resolveLines(ctx context.Context, tx dbx.DBTX, raw []models.RawLine) ([]models.IngredientLine, error) {
	lines := make([]models.IngredientLine, 0, len(raw))
	for _, l := range raw {
		line := models.IngredientLine{Quantity: l.Quantity, Unit: l.Unit}

		switch {
		case l.ID != "":
			id := l.ID
			line.IngredientID = &id
		case l.Name == "":
			continue
		case l.Custom:
			name := l.Name
			line.CustomName = &name
		default:
			id, err := s.catalog.Resolve(ctx, tx, l.Name)
			if err != nil {
				return nil, err
			}
			line.IngredientID = &id
		}

		lines = append(lines, line)
	}
	return lines, nil
}

func prepare(draft *models.RecipeDraft) error {
	if draft == nil {
		return fmt.Errorf("%w: recipe is required", common.ErrValidation)
	}
	draft.Normalize()
	return draft.Validate()
}

func (s *RecipeSyncService) failure(ctx context.Context, op string, err error) SyncResult {
	kind := syncKind(err)
	if kind == KindPersistenceFailed {
		s.logger.Error(ctx, "recipe "+op+" failed", "error", err)
	} else {
		s.logger.Debug(ctx, "recipe "+op+" rejected", "kind", kind, "error", err)
	}
	return SyncResult{ErrorKind: kind, Detail: detail(op, kind, err)}
}
