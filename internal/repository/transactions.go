package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := first(r.db.WithContext(ctx).Where("id = ?", id), &transaction); err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	if err := first(q, &transaction); err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID), &transaction); err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) List(ctx context.Context, userID string, filter TransactionFilter, req pagination.PageRequest) ([]models.Transaction, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)

	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.AccountID != nil {
		base = base.Where("account_id = ? OR transfer_account_id = ?", *filter.AccountID, *filter.AccountID)
	}
	if filter.MinAmount != nil {
		base = base.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		base = base.Where("amount <= ?", *filter.MaxAmount)
	}

	return page[models.Transaction](base, req, "date DESC, created_at DESC")
}

// Save overwrites the stored row. Unlike gorm's Save it never inserts, so a
// row deleted in the meantime yields ErrNotFound instead of coming back.
func (r *transactionRepository) Save(ctx context.Context, transaction *models.Transaction) error {
	return affected(r.db.WithContext(ctx).Model(transaction).
		Select("*").Omit("id", "created_at", "deleted_at").
		Updates(transaction))
}

func (r *transactionRepository) Delete(ctx context.Context, transaction *models.Transaction) error {
	return affected(r.db.WithContext(ctx).Delete(transaction))
}

func (r *transactionRepository) DetachBudget(ctx context.Context, budgetID string) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("budget_id = ?", budgetID).
		Update("budget_id", nil).Error
}

func (r *transactionRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ? OR transfer_account_id = ?", accountID, accountID).
		Count(&count).Error
	return count, err
}

func (r *transactionRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}
