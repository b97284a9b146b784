// Package recipes stores recipe rows and their ingredient association rows.
package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

const recipeColumns = `id, user_id, title, description, instructions, prep_time, cook_time,
		 servings, image_path, category_id, status, created_at, updated_at`

// orderColumns is the allowlist for RecipeFilter.OrderBy.
var orderColumns = map[string]string{
	"":           "created_at",
	"created_at": "created_at",
	"title":      "title",
	"prep_time":  "prep_time",
	"cook_time":  "cook_time",
	"servings":   "servings",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (string, error) {
	if err := recipe.Validate(); err != nil {
		return "", err
	}

	query :=
		`INSERT INTO recipes (user_id, title, description, instructions, prep_time, cook_time,
		                      servings, image_path, category_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		recipe.UserID, recipe.Title, recipe.Description, recipe.Instructions,
		recipe.PrepTime, recipe.CookTime, recipe.Servings,
		recipe.ImagePath, recipe.CategoryID, recipe.Status,
	).Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)

	if err != nil {
		return "", wrapWriteError(err)
	}

	return recipe.ID, nil
}

// Update rewrites the content fields and status of a recipe owned by
// ownerID. A missing recipe and a foreign one are indistinguishable.
func (r *PostgresRepository) Update(ctx context.Context, recipe *models.Recipe, ownerID string) error {
	if err := recipe.Validate(); err != nil {
		return err
	}

	query :=
		`UPDATE recipes
		 SET title = $1, description = $2, instructions = $3, prep_time = $4, cook_time = $5,
		     servings = $6, image_path = $7, category_id = $8, status = $9, updated_at = now()
		 WHERE id = $10 AND user_id = $11
		 `

	res, err := r.db.ExecContext(ctx, query,
		recipe.Title, recipe.Description, recipe.Instructions,
		recipe.PrepTime, recipe.CookTime, recipe.Servings,
		recipe.ImagePath, recipe.CategoryID, recipe.Status,
		recipe.ID, ownerID,
	)
	if err != nil {
		return wrapWriteError(err)
	}

	return expectOneRow(res, common.ErrNotFoundOrForbidden)
}

// ReplaceLines deletes every association row of the recipe and inserts
// lines in order. Run it on a transaction: a failed insert leaves the
// deletions to the caller's rollback.
func (r *PostgresRepository) ReplaceLines(ctx context.Context, recipeID string, lines []models.IngredientLine) error {
	for i := range lines {
		lines[i].RecipeID = recipeID
		lines[i].Position = i + 1
		if err := lines[i].Validate(); err != nil {
			return err
		}
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO recipe_ingredients (recipe_id, position, ingredient_id, custom_name, quantity, unit)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	for _, l := range lines {
		_, err := r.db.ExecContext(ctx, query, recipeID, l.Position, l.IngredientID, l.CustomName, l.Quantity, l.Unit)
		if err != nil {
			return fmt.Errorf("line %d: %w", l.Position, wrapWriteError(err))
		}
	}

	return nil
}

// Delete removes the association rows and then the recipe row.
func (r *PostgresRepository) Delete(ctx context.Context, recipeID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, recipeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res, common.ErrNotFound)
}

// DeleteByOwner removes every recipe of a user, lines first, and returns
// how many recipes were deleted.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, userID string) (int64, error) {
	query :=
		`DELETE FROM recipe_ingredients
		 WHERE recipe_id IN (SELECT id FROM recipes WHERE user_id = $1)
		 `
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Get(ctx context.Context, recipeID string) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`

	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, recipeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return recipe, nil
}

// Lines returns the ingredient lines of a recipe in position order with
// Name set to the catalog name or the custom name.
func (r *PostgresRepository) Lines(ctx context.Context, recipeID string) ([]models.IngredientLine, error) {
	query :=
		`SELECT ri.recipe_id, ri.position, ri.ingredient_id, ri.custom_name,
		        COALESCE(i.name, ri.custom_name, ''), ri.quantity, ri.unit
		 FROM recipe_ingredients ri
		 LEFT JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = $1
		 ORDER BY ri.position
		 `

	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var lines []models.IngredientLine
	for rows.Next() {
		var l models.IngredientLine
		if err := rows.Scan(&l.RecipeID, &l.Position, &l.IngredientID, &l.CustomName, &l.Name, &l.Quantity, &l.Unit); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return lines, nil
}

// List returns recipes matching filter. An empty status set matches
// nothing and issues no query.
func (r *PostgresRepository) List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	if len(filter.Statuses) == 0 {
		return nil, nil
	}

	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, *recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func buildListQuery(filter models.RecipeFilter) (string, []any, error) {
	column, ok := orderColumns[filter.OrderBy]
	if !ok {
		return "", nil, fmt.Errorf("%w: cannot order by %q", common.ErrValidation, filter.OrderBy)
	}

	var dir string
	switch strings.ToLower(filter.OrderDir) {
	case "", "desc":
		dir = "DESC"
	case "asc":
		dir = "ASC"
	default:
		return "", nil, fmt.Errorf("%w: unknown order direction %q", common.ErrValidation, filter.OrderDir)
	}

	var (
		sb   strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	sb.WriteString(`SELECT ` + recipeColumns + ` FROM recipes WHERE status IN (`)
	for i, s := range filter.Statuses {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg(s))
	}
	sb.WriteString(")")

	if filter.OwnerID != "" {
		sb.WriteString(" AND user_id = " + arg(filter.OwnerID))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + s + "%")
		sb.WriteString(" AND (title ILIKE " + p + " OR description ILIKE " + p + ")")
	}

	sb.WriteString(" ORDER BY " + column + " " + dir + ", id")

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}

	return sb.String(), args, nil
}

// UpdateStatus moves a recipe from one status to another. It affects no row
// when the stored status is no longer from, which is reported as
// common.ErrNotFound.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, recipeID string, from, to models.Status) error {
	query :=
		`UPDATE recipes SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3
		 `

	res, err := r.db.ExecContext(ctx, query, to, recipeID, from)
	if err != nil {
		return wrapWriteError(err)
	}

	return expectOneRow(res, common.ErrNotFound)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, recipeID string, to models.Status) error {
	query :=
		`UPDATE recipes SET status = $1, updated_at = now()
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, to, recipeID)
	if err != nil {
		return wrapWriteError(err)
	}

	return expectOneRow(res, common.ErrNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	r := &models.Recipe{}
	err := s.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Instructions,
		&r.PrepTime, &r.CookTime, &r.Servings, &r.ImagePath, &r.CategoryID,
		&r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return none
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func wrapWriteError(err error) error {
	switch {
	case dbx.IsCheckViolation(err):
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	case dbx.IsForeignKeyViolation(err), dbx.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", common.ErrConstraintViolation, err)
	}
	return fmt.Errorf("db error: %w", err)
}
