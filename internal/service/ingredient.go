package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/models"
)

type IngredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// List returns ingredients, optionally narrowed by a case-insensitive
// prefix match on the name.
func (s *IngredientService) List(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("id")
	if namePrefix != "" {
		query = query.Where("LOWER(name) LIKE ?", strings.ToLower(namePrefix)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ingredient %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &ingredient, nil
}

func (s *IngredientService) Create(ctx context.Context, ingredient *models.Ingredient) error {
	if ingredient.Name == "" || ingredient.MeasurementUnit == "" {
		return fmt.Errorf("%w: name and measurement_unit are required", ErrValidation)
	}
	if err := s.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: ingredient with this name and unit", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *IngredientService) Update(ctx context.Context, id uint, ingredient *models.Ingredient) (*models.Ingredient, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":             ingredient.Name,
		"measurement_unit": ingredient.MeasurementUnit,
	}
	if err := s.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: ingredient with this name and unit", ErrConflict)
		}
		return nil, err
	}
	return existing, nil
}

func (s *IngredientService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Ingredient{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ingredient %d", ErrNotFound, id)
	}
	return nil
}

// Import bulk-loads reference ingredients, skipping (name, unit) pairs that
// already exist. Returns the number of rows actually created.
func (s *IngredientService) Import(ctx context.Context, ingredients []models.Ingredient) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range ingredients {
			if ingredients[i].Name == "" || ingredients[i].MeasurementUnit == "" {
				return fmt.Errorf("%w: row %d: name and measurement_unit are required", ErrValidation, i+1)
			}
			res := tx.Where("name = ? AND measurement_unit = ?",
				ingredients[i].Name, ingredients[i].MeasurementUnit).
				FirstOrCreate(&ingredients[i])
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
