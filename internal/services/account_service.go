package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/clock"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/repository"
)

const defaultCurrency = "USD"

// accountService handles account-related business logic.
type accountService struct {
	store     repository.Store
	clock     clock.Clock
	publisher events.Publisher
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(store repository.Store, clk clock.Clock, publisher events.Publisher) AccountServicer {
	return &accountService{store: store, clock: clk, publisher: publisher}
}

// CreateAccount creates a new account for a user.
func (s *accountService) CreateAccount(ctx context.Context, userID string, draft AccountDraft) (*models.Account, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !draft.Type.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unsupported account type %q", draft.Type)
	}

	currency := strings.ToUpper(draft.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	account := &models.Account{
		UserID:      userID,
		Name:        name,
		Type:        draft.Type,
		Balance:     draft.InitialBalance,
		Currency:    currency,
		Description: draft.Description,
	}
	if err := account.CheckBalance(); err != nil {
		return nil, err
	}

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		if _, err := r.Users().FindByID(ctx, userID); err != nil {
			return storeErr(err, apperrors.ErrUserNotFound)
		}

		exists, err := r.Accounts().ExistsByName(ctx, userID, name, "")
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if exists {
			return apperrors.Newf(apperrors.ErrDuplicateAccountName, "An account named %q already exists", name)
		}

		if err := r.Accounts().Create(ctx, account); err != nil {
			return writeErr(err, apperrors.Newf(apperrors.ErrDuplicateAccountName, "An account named %q already exists", name), apperrors.ErrAccountNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("account created", "account_id", account.ID, "user_id", userID, "type", account.Type)
	return account, nil
}

// Deposit adds amount to the account balance.
func (s *accountService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*models.Account, error) {
	return s.mutateBalance(ctx, accountID, amount, events.AccountDeposited, deposit)
}

// Withdraw subtracts amount from the account balance.
func (s *accountService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*models.Account, error) {
	return s.mutateBalance(ctx, accountID, amount, events.AccountWithdrawn, withdraw)
}

func (s *accountService) mutateBalance(
	ctx context.Context,
	accountID string,
	amount decimal.Decimal,
	eventType events.EventType,
	mutate func(*models.Account, decimal.Decimal) error,
) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	var account *models.Account
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		account, err = r.Accounts().FindByIDForUpdate(ctx, accountID)
		if err != nil {
			return storeErr(err, apperrors.Newf(apperrors.ErrAccountNotFound, "Account %s not found", accountID))
		}
		if err := mutate(account, amount); err != nil {
			return err
		}
		return storeErr(r.Accounts().SaveBalance(ctx, account), apperrors.ErrAccountNotFound)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.LedgerEvent{
		Type:       eventType,
		UserID:     account.UserID,
		AccountID:  account.ID,
		Amount:     amount,
		OccurredAt: s.clock.Now(),
	})
	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Normalize()

	accounts, total, err := s.store.Accounts().ListByUser(ctx, userID, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page, total)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user.
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	account, err := s.store.Accounts().FindByIDAndUser(ctx, accountID, userID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrAccountNotFound)
	}
	return account, nil
}

// UpdateAccount changes the name and description of an account.
func (s *accountService) UpdateAccount(ctx context.Context, userID, accountID string, changes AccountChanges) (*models.Account, error) {
	var account *models.Account
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		account, err = r.Accounts().FindByIDAndUser(ctx, accountID, userID)
		if err != nil {
			return storeErr(err, apperrors.ErrAccountNotFound)
		}

		updates := make(map[string]any)
		if changes.Name != nil {
			name := strings.TrimSpace(*changes.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
			}
			if name != account.Name {
				exists, err := r.Accounts().ExistsByName(ctx, userID, name, accountID)
				if err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if exists {
					return apperrors.Newf(apperrors.ErrDuplicateAccountName, "An account named %q already exists", name)
				}
				updates["name"] = name
			}
		}
		if changes.Description != nil {
			updates["description"] = *changes.Description
		}

		return writeErr(r.Accounts().Update(ctx, account, updates), apperrors.ErrDuplicateAccountName, apperrors.ErrAccountNotFound)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account that no transaction references.
func (s *accountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return s.store.Atomic(ctx, func(r repository.Repositories) error {
		account, err := r.Accounts().FindByIDAndUser(ctx, accountID, userID)
		if err != nil {
			return storeErr(err, apperrors.ErrAccountNotFound)
		}

		count, err := r.Transactions().CountByAccount(ctx, accountID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.Newf(apperrors.ErrAccountHasTransactions,
				"Account %q has %d transactions and cannot be deleted", account.Name, count)
		}

		if err := r.Accounts().Delete(ctx, account); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		logger.Get().Infow("account deleted", "account_id", accountID, "user_id", userID)
		return nil
	})
}
