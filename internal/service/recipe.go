package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkrasilnikov/foodgram/backend/internal/models"
)

// RecipeIngredientInput is one (ingredient, amount) pair of a create/update
// request.
type RecipeIngredientInput struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput carries everything a recipe create/update needs. Tags and
// ingredients always describe the full desired sets, never a diff.
type RecipeInput struct {
	Name        string                  `json:"name"`
	Image       string                  `json:"image"`
	Text        string                  `json:"text"`
	CookingTime int                     `json:"cooking_time"`
	Tags        []uint                  `json:"tags"`
	Ingredients []RecipeIngredientInput `json:"ingredients"`
}

// RecipeFilter narrows List results. Favorited and InCart are only honored
// when a viewer is set; anonymous callers get the unfiltered list.
type RecipeFilter struct {
	Author    string
	TagSlugs  []string
	Favorited bool
	InCart    bool
}

// RecipeService owns the recipe aggregate: the recipe row plus its
// ingredient amounts and tag set, mutated only as one unit.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

func (in *RecipeInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.CookingTime < 1 {
		return fmt.Errorf("%w: cooking_time must be at least 1", ErrValidation)
	}
	if len(in.Ingredients) == 0 {
		return fmt.Errorf("%w: at least one ingredient is required", ErrValidation)
	}

	seenTags := make(map[uint]bool, len(in.Tags))
	for _, id := range in.Tags {
		if seenTags[id] {
			return fmt.Errorf("%w: duplicate tag id %d", ErrValidation, id)
		}
		seenTags[id] = true
	}

	seenIngredients := make(map[uint]bool, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if seenIngredients[item.ID] {
			return fmt.Errorf("%w: duplicate ingredient id %d", ErrValidation, item.ID)
		}
		seenIngredients[item.ID] = true
		if item.Amount < 1 {
			return fmt.Errorf("%w: amount for ingredient %d must be at least 1", ErrValidation, item.ID)
		}
	}
	return nil
}

// resolveTags loads every referenced tag, failing if any id is unknown.
func resolveTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, fmt.Errorf("%w: tag %d", ErrNotFound, id)
			}
		}
	}
	return tags, nil
}

// resolveIngredientRows turns the requested pairs into join rows, failing if
// any ingredient id is unknown.
func resolveIngredientRows(tx *gorm.DB, recipeID uint, items []RecipeIngredientInput) ([]models.IngredientInRecipe, error) {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	var ingredients []models.Ingredient
	if err := tx.Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	found := make(map[uint]bool, len(ingredients))
	for _, ing := range ingredients {
		found[ing.ID] = true
	}

	rows := make([]models.IngredientInRecipe, 0, len(items))
	for _, item := range items {
		if !found[item.ID] {
			return nil, fmt.Errorf("%w: ingredient %d", ErrNotFound, item.ID)
		}
		rows = append(rows, models.IngredientInRecipe{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return rows, nil
}

// Create persists a recipe with its full ingredient and tag sets in one
// transaction. Any resolution failure rolls everything back.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in *RecipeInput) (*models.Recipe, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var recipeID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}

		recipe := models.Recipe{
			AuthorID:    &authorID,
			Name:        in.Name,
			Image:       in.Image,
			Text:        in.Text,
			CookingTime: in.CookingTime,
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}

		rows, err := resolveIngredientRows(tx, recipe.ID, in.Ingredients)
		if err != nil {
			return err
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		if len(tags) > 0 {
			if err := tx.Model(&recipe).Association("Tags").Append(tags); err != nil {
				return err
			}
		}

		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, recipeID)
}

// Update applies replace-in-full semantics: the stored ingredient rows and
// tag associations are dropped and re-created from the request, then the
// scalar fields are updated, all inside one transaction holding a row lock
// on the recipe so no reader or concurrent writer sees the cleared state.
func (s *RecipeService) Update(ctx context.Context, recipeID uint, actor *models.User, in *RecipeInput) (*models.Recipe, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var recipe models.Recipe
		if err := query.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: recipe %d", ErrNotFound, recipeID)
			}
			return err
		}

		if err := authorize(&recipe, actor); err != nil {
			return err
		}

		tags, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}
		rows, err := resolveIngredientRows(tx, recipe.ID, in.Ingredients)
		if err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.IngredientInRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
				return err
			}
		} else if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         in.Name,
			"image":        in.Image,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		return tx.Model(&recipe).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, recipeID)
}

// Delete removes a recipe; the join rows and ledger edges cascade.
func (s *RecipeService) Delete(ctx context.Context, recipeID uint, actor *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: recipe %d", ErrNotFound, recipeID)
			}
			return err
		}
		if err := authorize(&recipe, actor); err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.IngredientInRecipe{}).Error; err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
}

// authorize allows the recipe's author and staff through.
func authorize(recipe *models.Recipe, actor *models.User) error {
	if actor == nil {
		return fmt.Errorf("%w: authentication required", ErrForbidden)
	}
	if actor.IsStaff {
		return nil
	}
	if recipe.AuthorID == nil || *recipe.AuthorID != actor.ID {
		return fmt.Errorf("%w: only the author can modify this recipe", ErrForbidden)
	}
	return nil
}

// Get loads a recipe with its tags, ingredient lines and author.
func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredient_in_recipes.id")
		}).
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: recipe %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &recipe, nil
}

// List returns recipes newest first, applying the requested filters.
// Viewer-dependent filters are silently skipped for anonymous callers.
func (s *RecipeService) List(ctx context.Context, viewer *uuid.UUID, filter RecipeFilter) ([]models.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Preload("Tags").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredient_in_recipes.id")
		}).
		Preload("Ingredients.Ingredient").
		Preload("Author")

	if filter.Author != "" {
		query = query.Where("recipes.author_id = ?", filter.Author)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs).
			Distinct("recipes.*")
	}
	if viewer != nil {
		if filter.Favorited {
			query = query.Where("recipes.id IN (?)",
				s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *viewer))
		}
		if filter.InCart {
			query = query.Where("recipes.id IN (?)",
				s.db.Model(&models.Cart{}).Select("recipe_id").Where("user_id = ?", *viewer))
		}
	}

	var recipes []models.Recipe
	if err := query.Order("recipes.created_at DESC, recipes.id DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
