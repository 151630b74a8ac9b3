// Package repository persists the ledger aggregates with GORM. Each aggregate
// gets a narrow interface; Store binds them to a connection and runs units of
// work in a single database transaction.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

var (
	// ErrNotFound is returned when a lookup matches no row, or a write
	// targets a row that no longer exists.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write collides with a unique index.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository stores users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// AccountRepository stores accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	// FindByIDForUpdate loads the account and locks its row until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.Account, error)
	FindByIDAndUser(ctx context.Context, id, userID string) (*models.Account, error)
	ListByUser(ctx context.Context, userID string, page pagination.PageRequest) ([]models.Account, int64, error)
	ExistsByName(ctx context.Context, userID, name, excludeID string) (bool, error)
	SaveBalance(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account, fields map[string]any) error
	Delete(ctx context.Context, account *models.Account) error
}

// CategoryRepository stores categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByIDAndUser(ctx context.Context, id, userID string) (*models.Category, error)
	ListByUser(ctx context.Context, userID string, categoryType *models.CategoryType, page pagination.PageRequest) ([]models.Category, int64, error)
	ExistsByName(ctx context.Context, userID, name, excludeID string) (bool, error)
	CountChildren(ctx context.Context, id string) (int64, error)
	Update(ctx context.Context, category *models.Category, fields map[string]any) error
	Delete(ctx context.Context, category *models.Category) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// TransactionRepository stores transactions.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	// FindByIDForUpdate loads the transaction and locks its row until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.Transaction, error)
	FindByIDAndUser(ctx context.Context, id, userID string) (*models.Transaction, error)
	List(ctx context.Context, userID string, filter TransactionFilter, page pagination.PageRequest) ([]models.Transaction, int64, error)
	Save(ctx context.Context, transaction *models.Transaction) error
	Delete(ctx context.Context, transaction *models.Transaction) error
	// CountByAccount counts transactions using the account as source or destination.
	CountByAccount(ctx context.Context, accountID string) (int64, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	// DetachBudget clears the budget link of every transaction booked to budgetID.
	DetachBudget(ctx context.Context, budgetID string) error
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	CategoryID *string
	ActiveOn   *time.Time
}

// BudgetRepository stores budgets.
type BudgetRepository interface {
	Create(ctx context.Context, budget *models.Budget) error
	FindByID(ctx context.Context, id string) (*models.Budget, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Budget, error)
	FindByIDAndUser(ctx context.Context, id, userID string) (*models.Budget, error)
	ListByUser(ctx context.Context, userID string, filter BudgetFilter, page pagination.PageRequest) ([]models.Budget, int64, error)
	// FindActiveForUpdate returns the user's budgets whose range contains day,
	// oldest first, with their rows locked.
	FindActiveForUpdate(ctx context.Context, userID string, day time.Time) ([]models.Budget, error)
	// FindExpired returns budgets of every user whose range ended before day.
	FindExpired(ctx context.Context, day time.Time) ([]models.Budget, error)
	HasOverlap(ctx context.Context, userID, categoryID string, start, end time.Time, excludeID string) (bool, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	Save(ctx context.Context, budget *models.Budget) error
	Delete(ctx context.Context, budget *models.Budget) error
}

// Repositories groups the aggregate repositories bound to one connection or
// one database transaction.
type Repositories interface {
	Users() UserRepository
	Accounts() AccountRepository
	Categories() CategoryRepository
	Transactions() TransactionRepository
	Budgets() BudgetRepository
}

// Store is the entry point the services depend on.
type Store interface {
	Repositories
	// Atomic runs fn in one database transaction. All writes made through the
	// Repositories passed to fn commit together, or none do if fn returns an error.
	Atomic(ctx context.Context, fn func(r Repositories) error) error
}

type gormRepositories struct {
	db *gorm.DB
}

func (r gormRepositories) Users() UserRepository               { return &userRepository{db: r.db} }
func (r gormRepositories) Accounts() AccountRepository         { return &accountRepository{db: r.db} }
func (r gormRepositories) Categories() CategoryRepository      { return &categoryRepository{db: r.db} }
func (r gormRepositories) Transactions() TransactionRepository { return &transactionRepository{db: r.db} }
func (r gormRepositories) Budgets() BudgetRepository           { return &budgetRepository{db: r.db} }

type gormStore struct {
	gormRepositories
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{gormRepositories{db: db}}
}

func (s *gormStore) Atomic(ctx context.Context, fn func(r Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormRepositories{db: tx})
	})
}

// first runs q.First(dest) and maps a missing row to ErrNotFound.
func first(q *gorm.DB, dest any) error {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// write maps gorm's translated unique violation to ErrDuplicate. Connections
// must be opened with gorm.Config.TranslateError set.
func write(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// affected returns ErrNotFound when q succeeded without touching a row.
func affected(q *gorm.DB) error {
	if q.Error != nil {
		return q.Error
	}
	if q.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// page counts the rows matched by base and loads the requested page into dest.
func page[T any](base *gorm.DB, req pagination.PageRequest, order string) ([]T, int64, error) {
	q := base.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []T
	if err := q.Scopes(pagination.Paginate(req)).Order(order).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
