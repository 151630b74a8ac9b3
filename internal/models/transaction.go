package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// CategoryType returns the category type a transaction of this type may use.
// Transfers take no category.
func (t TransactionType) CategoryType() (CategoryType, bool) {
	switch t {
	case TransactionTypeIncome:
		return CategoryTypeIncome, true
	case TransactionTypeExpense:
		return CategoryTypeExpense, true
	}
	return "", false
}

// Transaction records one monetary movement against an account.
type Transaction struct {
	Base
	UserID            string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID         string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID        *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	TransferAccountID *string         `gorm:"type:uuid;index" json:"transfer_account_id,omitempty"`
	Type              TransactionType `gorm:"not null" json:"type"`
	Amount            decimal.Decimal `gorm:"type:numeric(19,4);not null" json:"amount"`
	Description       string          `json:"description"`
	Notes             string          `json:"notes,omitempty"`
	Date              time.Time       `gorm:"not null;index" json:"date"`
	// BudgetID is the budget whose spent total holds this expense. It is
	// cleared when that budget starts a fresh tally.
	BudgetID *string `gorm:"type:uuid;index" json:"budget_id,omitempty"`
}
