package models

import "time"

// Ingredient is a deduplicated catalog entry shared by all recipes.
type Ingredient struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CategoryID   *string `json:"category_id,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`
}

// Category groups ingredients and recipes.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is an account as stored by the users repository.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
