package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/models"
)

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tag %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &tag, nil
}

// Create is admin-only; the policy middleware gates the route.
func (s *TagService) Create(ctx context.Context, tag *models.Tag) error {
	if tag.Name == "" || tag.Color == "" || tag.Slug == "" {
		return fmt.Errorf("%w: name, color and slug are required", ErrValidation)
	}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: tag with this name, color or slug", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *TagService) Update(ctx context.Context, id uint, tag *models.Tag) (*models.Tag, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":  tag.Name,
		"color": tag.Color,
		"slug":  tag.Slug,
	}
	if err := s.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: tag with this name, color or slug", ErrConflict)
		}
		return nil, err
	}
	return existing, nil
}

func (s *TagService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Tag{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	return nil
}
