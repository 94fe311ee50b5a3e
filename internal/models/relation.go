package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite marks a recipe as favorited by a user. One edge per pair.
type Favorite struct {
	ID       uint      `gorm:"primarykey" json:"-"`
	UserID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_user_recipe" json:"user"`
	User     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecipeID uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"recipe"`
	Recipe   Recipe    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Cart puts a recipe into a user's shopping cart. CreatedAt drives the
// first-encounter ordering of the aggregated shopping list.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_recipe" json:"user"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"recipe"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// Follow subscribes a user to an author. Self-follows are rejected in the
// service before the edge is ever created.
type Follow struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_user_author" json:"user"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_user_author" json:"author"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"-"`
}
