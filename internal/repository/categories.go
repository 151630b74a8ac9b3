package repository

import (
	"context"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return write(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := first(r.db.WithContext(ctx).Where("id = ?", id), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*models.Category, error) {
	var category models.Category
	if err := first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListByUser(ctx context.Context, userID string, categoryType *models.CategoryType, req pagination.PageRequest) ([]models.Category, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Category{}).Where("user_id = ?", userID)
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}
	return page[models.Category](base, req, "name ASC")
}

func (r *categoryRepository) ExistsByName(ctx context.Context, userID, name, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return write(r.db.WithContext(ctx).Model(category).Updates(fields).Error)
}

func (r *categoryRepository) Delete(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Delete(category).Error
}
