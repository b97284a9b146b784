// Package ingredients stores the shared ingredient catalog.
package ingredients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Resolve returns the id of the ingredient named exactly name, inserting it
// first when absent. When a concurrent insert commits between the statement
// snapshot and the conflict check neither branch yields a row; that case and
// a unique violation both surface as common.ErrConstraintViolation so the
// caller can retry.
func (r *PostgresRepository) Resolve(ctx context.Context, name string) (string, error) {
	query :=
		`WITH ins AS (
		     INSERT INTO ingredients (name) VALUES ($1)
		     ON CONFLICT (name) DO NOTHING
		     RETURNING id
		 )
		 SELECT id FROM ins
		 UNION ALL
		 SELECT id FROM ingredients WHERE name = $1
		 LIMIT 1
		 `

	var id string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("resolve %q: %w", name, common.ErrConstraintViolation)
		}
		if dbx.IsUniqueViolation(err) {
			return "", fmt.Errorf("resolve %q: %w", name, common.ErrConstraintViolation)
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Ingredient, error) {
	query :=
		`SELECT i.id, i.name, i.category_id, c.name
		 FROM ingredients i
		 LEFT JOIN categories c ON c.id = i.category_id
		 WHERE i.id = $1
		 `

	ing := &models.Ingredient{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ing.ID, &ing.Name, &ing.CategoryID, &ing.CategoryName)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ing, nil
}

// Search returns up to limit ingredients whose name contains query,
// ordered by name.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) ([]models.Ingredient, error) {
	q :=
		`SELECT i.id, i.name, i.category_id, c.name
		 FROM ingredients i
		 LEFT JOIN categories c ON c.id = i.category_id
		 WHERE i.name ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY i.name
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, q, escapeLike(query), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

// List returns the catalog ordered by name, optionally restricted to one
// category.
func (r *PostgresRepository) List(ctx context.Context, categoryID string) ([]models.Ingredient, error) {
	query :=
		`SELECT i.id, i.name, i.category_id, c.name
		 FROM ingredients i
		 LEFT JOIN categories c ON c.id = i.category_id
		 WHERE ($1 = '' OR i.category_id::text = $1)
		 ORDER BY i.name
		 `

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

// Create inserts a catalog entry with an optional category.
func (r *PostgresRepository) Create(ctx context.Context, name string, categoryID *string) (*models.Ingredient, error) {
	ing := &models.Ingredient{Name: name, CategoryID: categoryID}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ingredients (name, category_id) VALUES ($1, $2) RETURNING id`,
		name, categoryID).Scan(&ing.ID)
	if err != nil {
		return nil, wrapWriteError(name, err)
	}

	return ing, nil
}

// Update renames an ingredient and moves it to another category (nil
// clears it).
func (r *PostgresRepository) Update(ctx context.Context, ing *models.Ingredient) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ingredients SET name = $1, category_id = $2 WHERE id = $3`,
		ing.Name, ing.CategoryID, ing.ID)
	if err != nil {
		return wrapWriteError(ing.Name, err)
	}

	return expectOneRow(res)
}

// Delete removes an ingredient no recipe line references.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("ingredient is used by recipes: %w", common.ErrConstraintViolation)
		}
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func wrapWriteError(name string, err error) error {
	switch {
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("ingredient %q: %w", name, common.ErrAlreadyExists)
	case dbx.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: unknown category", common.ErrValidation)
	case dbx.IsCheckViolation(err):
		return fmt.Errorf("%w: ingredient name is required", common.ErrValidation)
	}
	return fmt.Errorf("db error: %w", err)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanIngredients(rows *sql.Rows) ([]models.Ingredient, error) {
	var items []models.Ingredient
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.CategoryID, &ing.CategoryName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
