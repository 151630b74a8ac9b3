package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
)

// AccountType represents the kind of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "CHECKING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeInvestment AccountType = "INVESTMENT"
	AccountTypeLoan       AccountType = "LOAN"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard,
		AccountTypeCash, AccountTypeInvestment, AccountTypeLoan:
		return true
	}
	return false
}

// IsLiability reports whether balances of this type represent money owed.
// Liability balances may go below zero; asset balances may not.
func (t AccountType) IsLiability() bool {
	return t == AccountTypeCreditCard || t == AccountTypeLoan
}

// Account is a named money container owned by one user.
type Account struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_accounts_user_name,where:deleted_at IS NULL" json:"user_id"`
	Name        string          `gorm:"not null;uniqueIndex:idx_accounts_user_name,where:deleted_at IS NULL" json:"name"`
	Type        AccountType     `gorm:"not null" json:"type"`
	Balance     decimal.Decimal `gorm:"type:numeric(19,4);not null;default:0" json:"balance"`
	Currency    string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Description string          `json:"description,omitempty"`
}

// BeforeSave enforces the balance sign rule for the account type.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	return a.CheckBalance()
}

// CheckBalance returns ErrNegativeBalance when an asset account is below zero.
func (a *Account) CheckBalance() error {
	if !a.Type.IsLiability() && a.Balance.IsNegative() {
		return apperrors.Newf(apperrors.ErrNegativeBalance, "Balance of %s account %q cannot be negative", a.Type, a.Name)
	}
	return nil
}
