package database

import (
	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/models"
)

// Migrate creates or updates the schema for every entity, including the
// composite unique indexes the relationship ledger relies on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.IngredientInRecipe{},
		&models.Favorite{},
		&models.Cart{},
		&models.Follow{},
	)
}
