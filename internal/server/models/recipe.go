// Package models defines the server-side data models persisted in the
// database and exchanged between services.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/common"
)

// Recipe is a persisted recipe row.
type Recipe struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description"`
	Instructions string    `json:"instructions" validate:"required"`
	PrepTime     int       `json:"prep_time" validate:"gt=0"`
	CookTime     int       `json:"cook_time" validate:"gt=0"`
	Servings     int       `json:"servings" validate:"gt=0"`
	ImagePath    *string   `json:"image_path,omitempty"`
	CategoryID   *string   `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Status       Status    `json:"status" validate:"recipe_status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the required content fields and the status value.
func (r *Recipe) Validate() error {
	return validateStruct(r)
}

// IngredientLine is one quantity+unit+ingredient entry of a recipe.
// Exactly one of IngredientID and CustomName is set. Name is filled on
// reads with the catalog name or the custom name.
type IngredientLine struct {
	RecipeID     string  `json:"recipe_id"`
	Position     int     `json:"position"`
	IngredientID *string `json:"ingredient_id,omitempty"`
	CustomName   *string `json:"custom_name,omitempty"`
	Name         string  `json:"name"`
	Quantity     string  `json:"quantity"`
	Unit         string  `json:"unit"`
}

// Validate enforces the ingredient-id XOR custom-name rule.
func (l *IngredientLine) Validate() error {
	hasID := l.IngredientID != nil && *l.IngredientID != ""
	hasName := l.CustomName != nil && *l.CustomName != ""
	if hasID == hasName {
		return fmt.Errorf("%w: line %d must reference exactly one of ingredient id or custom name", common.ErrValidation, l.Position)
	}
	return nil
}

// RecipeDetail is a recipe together with its ordered ingredient lines.
type RecipeDetail struct {
	Recipe
	Lines []IngredientLine `json:"ingredients"`
}

// RawLine is an ingredient line as submitted by a client. ID carries a
// catalog id picked through autocomplete; otherwise Name is resolved
// against the catalog, unless Custom asks to keep it as free text.
type RawLine struct {
	ID       string `json:"id,omitempty" validate:"omitempty,uuid"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Custom   bool   `json:"custom,omitempty" validate:"excluded_with=ID"`
}

// Blank reports whether the line carries neither a catalog id nor a name.
func (l RawLine) Blank() bool {
	return l.ID == "" && l.Name == ""
}

// RecipeDraft is a full recipe submission: content fields, the requested
// status and the raw ingredient lines.
type RecipeDraft struct {
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description"`
	Instructions string    `json:"instructions" validate:"required"`
	PrepTime     int       `json:"prep_time" validate:"gt=0"`
	CookTime     int       `json:"cook_time" validate:"gt=0"`
	Servings     int       `json:"servings" validate:"gt=0"`
	ImagePath    *string   `json:"image_path,omitempty"`
	CategoryID   *string   `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Status       Status    `json:"status" validate:"recipe_status"`
	Lines        []RawLine `json:"ingredients" validate:"min=1,dive"`
}

// Normalize trims every text field, turns empty optional references into
// nil and drops blank ingredient lines (trailing empty form rows).
func (d *RecipeDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Instructions = strings.TrimSpace(d.Instructions)
	d.ImagePath = trimOptional(d.ImagePath)
	d.CategoryID = trimOptional(d.CategoryID)

	lines := make([]RawLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		l.ID = strings.TrimSpace(l.ID)
		l.Name = strings.TrimSpace(l.Name)
		l.Quantity = strings.TrimSpace(l.Quantity)
		l.Unit = strings.TrimSpace(l.Unit)
		if l.Blank() {
			continue
		}
		lines = append(lines, l)
	}
	d.Lines = lines
}

// Validate checks a normalized draft.
func (d *RecipeDraft) Validate() error {
	return validateStruct(d)
}

// Recipe builds the recipe row described by the draft.
func (d *RecipeDraft) Recipe(ownerID string) *Recipe {
	return &Recipe{
		UserID:       ownerID,
		Title:        d.Title,
		Description:  d.Description,
		Instructions: d.Instructions,
		PrepTime:     d.PrepTime,
		CookTime:     d.CookTime,
		Servings:     d.Servings,
		ImagePath:    d.ImagePath,
		CategoryID:   d.CategoryID,
		Status:       d.Status,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// RecipeFilter narrows a recipe listing. An empty Statuses slice matches
// nothing; callers derive it from the viewer.
type RecipeFilter struct {
	Statuses []Status `json:"statuses,omitempty"`
	OwnerID  string   `json:"owner_id,omitempty"`
	Search   string   `json:"search,omitempty"`
	OrderBy  string   `json:"order_by,omitempty"`
	OrderDir string   `json:"order_dir,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}
