package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return write(r.db.WithContext(ctx).Create(account).Error)
}

func (r *accountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := first(r.db.WithContext(ctx).Where("id = ?", id), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	if err := first(q, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*models.Account, error) {
	var account models.Account
	if err := first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID string, req pagination.PageRequest) ([]models.Account, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Account{}).Where("user_id = ?", userID)
	return page[models.Account](base, req, "name ASC")
}

func (r *accountRepository) ExistsByName(ctx context.Context, userID, name, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Account{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// SaveBalance writes only the balance column; the BeforeSave hook on
// Account still runs and rejects an invalid sign.
func (r *accountRepository) SaveBalance(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Model(account).Update("balance", account.Balance).Error
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return write(r.db.WithContext(ctx).Model(account).Updates(fields).Error)
}

func (r *accountRepository) Delete(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Delete(account).Error
}
