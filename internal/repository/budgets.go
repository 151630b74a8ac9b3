package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

type budgetRepository struct {
	db *gorm.DB
}

func (r *budgetRepository) Create(ctx context.Context, budget *models.Budget) error {
	return r.db.WithContext(ctx).Create(budget).Error
}

func (r *budgetRepository) FindByID(ctx context.Context, id string) (*models.Budget, error) {
	var budget models.Budget
	if err := first(r.db.WithContext(ctx).Where("id = ?", id), &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Budget, error) {
	var budget models.Budget
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	if err := first(q, &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*models.Budget, error) {
	var budget models.Budget
	if err := first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID), &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) ListByUser(ctx context.Context, userID string, filter BudgetFilter, req pagination.PageRequest) ([]models.Budget, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Budget{}).Where("user_id = ?", userID)
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOn != nil {
		base = base.Where("start_date <= ? AND end_date >= ?", *filter.ActiveOn, *filter.ActiveOn)
	}
	return page[models.Budget](base, req, "start_date DESC, name ASC")
}

func (r *budgetRepository) FindActiveForUpdate(ctx context.Context, userID string, day time.Time) ([]models.Budget, error) {
	var budgets []models.Budget
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, day, day).
		Order("created_at ASC").
		Find(&budgets).Error
	return budgets, err
}

func (r *budgetRepository) FindExpired(ctx context.Context, day time.Time) ([]models.Budget, error) {
	var budgets []models.Budget
	err := r.db.WithContext(ctx).
		Where("end_date < ?", day).
		Order("end_date ASC").
		Find(&budgets).Error
	return budgets, err
}

func (r *budgetRepository) HasOverlap(ctx context.Context, userID, categoryID string, start, end time.Time, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *budgetRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Budget{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

func (r *budgetRepository) Save(ctx context.Context, budget *models.Budget) error {
	return r.db.WithContext(ctx).Save(budget).Error
}

func (r *budgetRepository) Delete(ctx context.Context, budget *models.Budget) error {
	return r.db.WithContext(ctx).Delete(budget).Error
}
