package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/repository"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, username, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// AccountDraft holds the fields of a new account.
type AccountDraft struct {
	Name           string
	Type           models.AccountType
	Currency       string
	Description    string
	InitialBalance decimal.Decimal
}

// AccountChanges lists the account fields to change. Nil fields are left untouched.
type AccountChanges struct {
	Name        *string
	Description *string
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID string, draft AccountDraft) (*models.Account, error)
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*models.Account, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, changes AccountChanges) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
}

// CategoryDraft holds the fields of a new category.
type CategoryDraft struct {
	Name        string
	Type        models.CategoryType
	Description string
	Icon        string
	Color       string
	ParentID    *string
}

// CategoryChanges lists the category fields to change. Nil fields are left untouched.
type CategoryChanges struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
	Parent      *CategoryChange
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID string, draft CategoryDraft) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, changes CategoryChanges) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// TransactionDraft holds the fields of a new transaction. A zero Date means now.
type TransactionDraft struct {
	AccountID         string
	Type              models.TransactionType
	Amount            decimal.Decimal
	Description       string
	CategoryID        *string
	TransferAccountID *string
	Date              time.Time
	Notes             string
}

// CategoryChange sets a category reference, or clears it when ID is nil.
type CategoryChange struct {
	ID *string
}

// TransactionChanges lists the transaction fields to change. Nil fields are
// left untouched.
type TransactionChanges struct {
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
	Type        *models.TransactionType
	Category    *CategoryChange
	Notes       *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter = repository.TransactionFilter

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, draft TransactionDraft) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, transactionID, userID string, changes TransactionChanges) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID string) error
	Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// BudgetDraft holds the fields of a new budget. A nil EndDate spans one
// period from StartDate; custom budgets require it.
type BudgetDraft struct {
	CategoryID string
	Name       string
	Amount     decimal.Decimal
	Period     models.BudgetPeriod
	StartDate  time.Time
	EndDate    *time.Time
}

// BudgetChanges lists the budget fields to change. Nil fields are left untouched.
type BudgetChanges struct {
	Name      *string
	Amount    *decimal.Decimal
	Period    *models.BudgetPeriod
	StartDate *time.Time
	EndDate   *time.Time
	Spent     *decimal.Decimal
}

// BudgetListFilter holds optional filter parameters for listing budgets.
type BudgetListFilter struct {
	CategoryID *string
	ActiveOnly bool
}

// BudgetProgress contains spending vs budget data for a budget's current period.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, userID string, draft BudgetDraft) (*models.Budget, error)
	GetUserBudgets(ctx context.Context, userID string, filter BudgetListFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, changes BudgetChanges) (*models.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
	GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error)
	UpdateBudgetSpentAmount(ctx context.Context, userID, categoryID string, amount decimal.Decimal) error
	ResetBudgetSpentAmount(ctx context.Context, budgetID string) error
	RollOverExpiredBudgets(ctx context.Context) (int, error)
}
