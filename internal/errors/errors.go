// Package errors provides the application error type used across fintrack.
// Every service-layer failure is an *AppError carrying a Kind, so callers can
// classify a failure without matching on codes, and the HTTP layer can render
// it without leaking internal details.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its specific code.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindDuplicate    Kind = "duplicate"
	KindBusiness     Kind = "business"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// AppError represents a structured application error with an error code,
// human-readable message, kind, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"-"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrAccountNotFound) matches copies made by WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Newf creates a new AppError from sentinel with a formatted message.
func Newf(sentinel *AppError, format string, args ...any) *AppError {
	return WithMessage(sentinel, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of err, or KindInternal when err is not an AppError.
// A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func newError(kind Kind, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Kind: kind, StatusCode: status}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = newError(KindUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrInvalidCredentials = newError(KindUnauthorized, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
)

// General errors.
var (
	ErrInvalidInput   = newError(KindValidation, http.StatusBadRequest, "INVALID_INPUT", "Invalid input")
	ErrNotFound       = newError(KindNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer = newError(KindInternal, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
)

// User errors.
var (
	ErrUserNotFound      = newError(KindNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrDuplicateEmail    = newError(KindDuplicate, http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email already exists")
	ErrDuplicateUsername = newError(KindDuplicate, http.StatusConflict, "DUPLICATE_USERNAME", "A user with this username already exists")
)

// Account errors.
var (
	ErrAccountNotFound        = newError(KindNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
	ErrDuplicateAccountName   = newError(KindDuplicate, http.StatusConflict, "DUPLICATE_ACCOUNT_NAME", "An account with this name already exists")
	ErrInvalidAmount          = newError(KindValidation, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero")
	ErrInsufficientFunds      = newError(KindValidation, http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Insufficient funds")
	ErrAccountOwnership       = newError(KindValidation, http.StatusBadRequest, "ACCOUNT_OWNERSHIP", "Account does not belong to user")
	ErrNegativeBalance        = newError(KindValidation, http.StatusBadRequest, "NEGATIVE_BALANCE", "Balance cannot be negative for this account type")
	ErrAccountHasTransactions = newError(KindBusiness, http.StatusUnprocessableEntity, "ACCOUNT_HAS_TRANSACTIONS", "Account has existing transactions")
)

// Category errors.
var (
	ErrCategoryNotFound      = newError(KindNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	ErrDuplicateCategoryName = newError(KindDuplicate, http.StatusConflict, "DUPLICATE_CATEGORY_NAME", "A category with this name already exists")
	ErrCategoryOwnership     = newError(KindValidation, http.StatusBadRequest, "CATEGORY_OWNERSHIP", "Category does not belong to user")
	ErrCategoryTypeMismatch  = newError(KindValidation, http.StatusBadRequest, "CATEGORY_TYPE_MISMATCH", "Category type does not match")
	ErrCategoryTooDeep       = newError(KindValidation, http.StatusBadRequest, "CATEGORY_TOO_DEEP", "Subcategories cannot have children")
	ErrSelfParentCategory    = newError(KindValidation, http.StatusBadRequest, "SELF_PARENT_CATEGORY", "A category cannot be its own parent")
	ErrCategoryInUse         = newError(KindBusiness, http.StatusUnprocessableEntity, "CATEGORY_IN_USE", "Category is used by existing transactions")
	ErrCategoryHasBudgets    = newError(KindBusiness, http.StatusUnprocessableEntity, "CATEGORY_HAS_BUDGETS", "Category is used by existing budgets")
	ErrCategoryHasChildren   = newError(KindBusiness, http.StatusUnprocessableEntity, "CATEGORY_HAS_CHILDREN", "Category has subcategories")
)

// Transaction errors.
var (
	ErrTransactionNotFound    = newError(KindNotFound, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrTransactionOwnership   = newError(KindValidation, http.StatusBadRequest, "TRANSACTION_OWNERSHIP", "Transaction does not belong to user")
	ErrInvalidTransactionType = newError(KindValidation, http.StatusBadRequest, "INVALID_TRANSACTION_TYPE", "Unsupported transaction type")
	ErrInvalidTypeChange      = newError(KindValidation, http.StatusBadRequest, "INVALID_TYPE_CHANGE", "Cannot change transaction type to or from transfer")
	ErrTransferDestination    = newError(KindValidation, http.StatusBadRequest, "TRANSFER_DESTINATION", "Transfer requires a destination account and no category")
	ErrCurrencyMismatch       = newError(KindValidation, http.StatusBadRequest, "CURRENCY_MISMATCH", "Accounts use different currencies")
	ErrSameAccountTransfer    = newError(KindBusiness, http.StatusUnprocessableEntity, "SAME_ACCOUNT_TRANSFER", "Cannot transfer to the same account")
)

// Budget errors.
var (
	ErrBudgetNotFound    = newError(KindNotFound, http.StatusNotFound, "BUDGET_NOT_FOUND", "Budget not found")
	ErrBudgetOverlap     = newError(KindDuplicate, http.StatusConflict, "BUDGET_OVERLAP", "A budget for this category already covers this date range")
	ErrInvalidBudgetDate = newError(KindValidation, http.StatusBadRequest, "INVALID_BUDGET_DATES", "Budget end date must not be before its start date")
)
