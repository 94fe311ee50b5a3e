package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/models"
)

// RelationService manages the user/recipe and user/author edges: favorites,
// shopping cart entries and follows. Each edge is unique per pair, enforced
// both here and by a storage constraint.
type RelationService struct {
	db *gorm.DB
}

func NewRelationService(db *gorm.DB) *RelationService {
	return &RelationService{db: db}
}

// Subscription is one followed author with a preview of their recipes.
type Subscription struct {
	Author       models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

func (s *RelationService) loadRecipe(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: recipe %d", ErrNotFound, recipeID)
		}
		return nil, err
	}
	return &recipe, nil
}

// AddFavorite creates the favorite edge and returns the recipe. Favoriting
// twice is a conflict, not a no-op.
func (s *RelationService) AddFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) (*models.Recipe, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: recipe is already in favorites", ErrConflict)
	}

	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	edge := models.Favorite{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Create(&edge).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: recipe is already in favorites", ErrConflict)
		}
		return nil, err
	}
	return recipe, nil
}

func (s *RelationService) RemoveFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: recipe is not in favorites", ErrValidation)
	}
	return nil
}

// AddToCart creates the cart edge and returns the recipe.
func (s *RelationService) AddToCart(ctx context.Context, userID uuid.UUID, recipeID uint) (*models.Recipe, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Cart{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: recipe is already in the shopping cart", ErrConflict)
	}

	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	edge := models.Cart{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Create(&edge).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: recipe is already in the shopping cart", ErrConflict)
		}
		return nil, err
	}
	return recipe, nil
}

func (s *RelationService) RemoveFromCart(ctx context.Context, userID uuid.UUID, recipeID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Cart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: recipe is not in the shopping cart", ErrValidation)
	}
	return nil
}

// Follow subscribes userID to authorID. The self-follow check runs before
// the duplicate check since it needs no storage lookup.
func (s *RelationService) Follow(ctx context.Context, userID, authorID uuid.UUID) error {
	if userID == authorID {
		return fmt.Errorf("%w: you cannot follow yourself", ErrValidation)
	}

	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", ErrNotFound, authorID)
		}
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: you already follow this author", ErrConflict)
	}

	edge := models.Follow{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(&edge).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: you already follow this author", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *RelationService) Unfollow(ctx context.Context, userID, authorID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: you do not follow this author", ErrValidation)
	}
	return nil
}

// Subscriptions lists every followed author, each carrying up to
// recipesLimit of their recipes (all of them when the limit is zero) and
// the full recipe count. The limit caps the per-author preview, not the
// number of subscriptions.
func (s *RelationService) Subscriptions(ctx context.Context, userID uuid.UUID, recipesLimit int) ([]Subscription, error) {
	var follows []models.Follow
	if err := s.db.WithContext(ctx).
		Preload("Author").
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&follows).Error; err != nil {
		return nil, err
	}

	subs := make([]Subscription, 0, len(follows))
	for _, follow := range follows {
		query := s.db.WithContext(ctx).
			Where("author_id = ?", follow.AuthorID).
			Order("created_at DESC, id DESC")
		if recipesLimit > 0 {
			query = query.Limit(recipesLimit)
		}

		var recipes []models.Recipe
		if err := query.Find(&recipes).Error; err != nil {
			return nil, err
		}

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ?", follow.AuthorID).
			Count(&count).Error; err != nil {
			return nil, err
		}

		subs = append(subs, Subscription{
			Author:       follow.Author,
			Recipes:      recipes,
			RecipesCount: count,
		})
	}
	return subs, nil
}

// IsFollowing reports whether user follows author.
func (s *RelationService) IsFollowing(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// FavoritedSet returns which of the given recipes the user has favorited.
func (s *RelationService) FavoritedSet(ctx context.Context, userID uuid.UUID, recipeIDs []uint) (map[uint]bool, error) {
	return s.edgeSet(ctx, &models.Favorite{}, userID, recipeIDs)
}

// InCartSet returns which of the given recipes are in the user's cart.
func (s *RelationService) InCartSet(ctx context.Context, userID uuid.UUID, recipeIDs []uint) (map[uint]bool, error) {
	return s.edgeSet(ctx, &models.Cart{}, userID, recipeIDs)
}

func (s *RelationService) edgeSet(ctx context.Context, model interface{}, userID uuid.UUID, recipeIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return set, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
