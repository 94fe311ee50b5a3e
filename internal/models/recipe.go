package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is reference data attached to recipes for filtering.
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:16;uniqueIndex;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

// Ingredient is reference data, normally loaded in bulk and rarely edited.
// The same name may appear with different measurement units.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:200;uniqueIndex:idx_ingredient_name_unit;not null" json:"name"`
	MeasurementUnit string `gorm:"size:200;uniqueIndex:idx_ingredient_name_unit;not null" json:"measurement_unit"`
}

// Recipe owns its ingredient rows and tag set; both are only ever mutated
// through RecipeService as one unit. Deleting the author keeps the recipe
// and nulls AuthorID.
type Recipe struct {
	ID          uint                 `gorm:"primarykey" json:"id"`
	AuthorID    *uuid.UUID           `gorm:"type:varchar(36);index" json:"-"`
	Author      *User                `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Name        string               `gorm:"size:200;not null" json:"name"`
	Image       string               `gorm:"type:text" json:"image"`
	Text        string               `gorm:"type:text" json:"text"`
	CookingTime int                  `gorm:"not null;check:cooking_time >= 1" json:"cooking_time"`
	Tags        []Tag                `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"-"`
	Ingredients []IngredientInRecipe `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"-"`
}

// IngredientInRecipe is the recipe/ingredient join row carrying the amount.
// At most one row per (recipe, ingredient), enforced by the index.
type IngredientInRecipe struct {
	ID           uint       `gorm:"primarykey" json:"-"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"-"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"id"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Amount       int        `gorm:"not null;check:amount >= 1" json:"amount"`
}
