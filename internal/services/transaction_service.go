package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/clock"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/repository"
)

// transactionService handles transaction-related business logic. Every
// mutation keeps account balances, transaction rows and budget spent totals
// consistent inside one store transaction.
type transactionService struct {
	store     repository.Store
	clock     clock.Clock
	publisher events.Publisher
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(store repository.Store, clk clock.Clock, publisher events.Publisher) TransactionServicer {
	return &transactionService{store: store, clock: clk, publisher: publisher}
}

// CreateTransaction records a transaction and applies its balance effect.
// Expenses with a category also count against the active budget.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, draft TransactionDraft) (*models.Transaction, error) {
	if !draft.Type.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidTransactionType, "Unsupported transaction type %q", draft.Type)
	}
	if !draft.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if draft.Type == models.TransactionTypeTransfer {
		if draft.TransferAccountID == nil || draft.CategoryID != nil {
			return nil, apperrors.ErrTransferDestination
		}
	} else if draft.TransferAccountID != nil {
		return nil, apperrors.WithMessage(apperrors.ErrTransferDestination, "Only transfers can have a destination account")
	}

	date := draft.Date
	if date.IsZero() {
		date = s.clock.Now()
	}

	tx := &models.Transaction{
		UserID:            userID,
		AccountID:         draft.AccountID,
		CategoryID:        draft.CategoryID,
		TransferAccountID: draft.TransferAccountID,
		Type:              draft.Type,
		Amount:            draft.Amount,
		Description:       draft.Description,
		Notes:             draft.Notes,
		Date:              date.UTC(),
	}

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		if _, err := r.Users().FindByID(ctx, userID); err != nil {
			return storeErr(err, apperrors.Newf(apperrors.ErrUserNotFound, "User %s not found", userID))
		}

		accounts, err := lockAccounts(ctx, r.Accounts(), tx.AccountID, stringValue(tx.TransferAccountID))
		if err != nil {
			return err
		}
		source, dest, err := ledgerAccounts(accounts, userID, tx)
		if err != nil {
			return err
		}

		if tx.CategoryID != nil {
			if _, err := resolveCategory(ctx, r.Categories(), userID, *tx.CategoryID, tx.Type); err != nil {
				return err
			}
		}

		if err := applyEffect(source, dest, tx.Type, tx.Amount); err != nil {
			return err
		}
		if err := checkBalances(accounts); err != nil {
			return err
		}
		if err := saveBalances(ctx, r.Accounts(), accounts); err != nil {
			return err
		}

		if categoryID, amount, ok := budgetContribution(tx); ok {
			if tx.BudgetID, err = bookBudgetSpent(ctx, r.Budgets(), clock.Today(s.clock), userID, categoryID, amount); err != nil {
				return err
			}
		}

		if err := r.Transactions().Create(ctx, tx); err != nil {
			return storeErr(err, apperrors.ErrTransactionNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("transaction created",
		"transaction_id", tx.ID,
		"account_id", tx.AccountID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
	)
	s.publishTransaction(ctx, events.TransactionCreated, tx)
	return tx, nil
}

// UpdateTransaction applies a partial change to a transaction. The old
// balance effect is reverted and the new one applied; the budget contribution
// moves only when the type, category or amount actually changed. The
// transaction row is locked first, then its accounts, then budgets.
func (s *transactionService) UpdateTransaction(ctx context.Context, transactionID, userID string, changes TransactionChanges) (*models.Transaction, error) {
	var tx *models.Transaction
	changed := false

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		tx, err = r.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return storeErr(err, apperrors.Newf(apperrors.ErrTransactionNotFound, "Transaction %s not found", transactionID))
		}
		if tx.UserID != userID {
			return apperrors.Newf(apperrors.ErrTransactionOwnership, "Transaction %s does not belong to user", transactionID)
		}

		old := *tx
		if changed, err = s.applyChanges(ctx, r, tx, changes); err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if old.Type != tx.Type || !old.Amount.Equal(tx.Amount) {
			accounts, err := lockAccounts(ctx, r.Accounts(), tx.AccountID, stringValue(tx.TransferAccountID))
			if err != nil {
				return err
			}
			source, dest, err := ledgerAccounts(accounts, userID, tx)
			if err != nil {
				return err
			}
			if err := revertEffect(source, dest, old.Type, old.Amount); err != nil {
				return err
			}
			if err := applyEffect(source, dest, tx.Type, tx.Amount); err != nil {
				return err
			}
			if err := checkBalances(accounts); err != nil {
				return err
			}
			if err := saveBalances(ctx, r.Accounts(), accounts); err != nil {
				return err
			}
		}

		if err := s.moveBudgetContribution(ctx, r, &old, tx); err != nil {
			return err
		}
		return storeErr(r.Transactions().Save(ctx, tx),
			apperrors.Newf(apperrors.ErrTransactionNotFound, "Transaction %s not found", transactionID))
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logger.Get().Infow("transaction updated", "transaction_id", tx.ID, "type", tx.Type, "amount", tx.Amount.String())
		s.publishTransaction(ctx, events.TransactionUpdated, tx)
	}
	return tx, nil
}

// applyChanges copies the supplied fields onto tx and reports whether any
// value differs from before.
func (s *transactionService) applyChanges(ctx context.Context, r repository.Repositories, tx *models.Transaction, changes TransactionChanges) (bool, error) {
	changed := false

	if changes.Type != nil && *changes.Type != tx.Type {
		if !changes.Type.IsValid() {
			return false, apperrors.Newf(apperrors.ErrInvalidTransactionType, "Unsupported transaction type %q", *changes.Type)
		}
		if *changes.Type == models.TransactionTypeTransfer || tx.Type == models.TransactionTypeTransfer {
			return false, apperrors.ErrInvalidTypeChange
		}
		tx.Type = *changes.Type
		changed = true
	}

	if changes.Amount != nil && !changes.Amount.Equal(tx.Amount) {
		if !changes.Amount.IsPositive() {
			return false, apperrors.ErrInvalidAmount
		}
		tx.Amount = *changes.Amount
		changed = true
	}

	if changes.Description != nil && *changes.Description != tx.Description {
		tx.Description = *changes.Description
		changed = true
	}
	if changes.Notes != nil && *changes.Notes != tx.Notes {
		tx.Notes = *changes.Notes
		changed = true
	}
	if changes.Date != nil && !changes.Date.Equal(tx.Date) {
		tx.Date = changes.Date.UTC()
		changed = true
	}

	categoryChanged := false
	if changes.Category != nil {
		newID := changes.Category.ID
		if stringValue(newID) != stringValue(tx.CategoryID) {
			tx.CategoryID = newID
			categoryChanged = true
			changed = true
		}
	}

	if tx.Type == models.TransactionTypeTransfer && tx.CategoryID != nil {
		return false, apperrors.ErrTransferDestination
	}

	// A newly attached category, or a kept one under a new type, must suit
	// the transaction.
	if tx.CategoryID != nil && (categoryChanged || changes.Type != nil) {
		if _, err := resolveCategory(ctx, r.Categories(), tx.UserID, *tx.CategoryID, tx.Type); err != nil {
			return false, err
		}
	}

	return changed, nil
}

// moveBudgetContribution withdraws the old expense from the budget it was
// booked to and books the new one against the budget active today, unless
// both contributions are identical.
func (s *transactionService) moveBudgetContribution(ctx context.Context, r repository.Repositories, old, updated *models.Transaction) error {
	oldCategory, oldAmount, hadOld := budgetContribution(old)
	newCategory, newAmount, hasNew := budgetContribution(updated)
	if hadOld == hasNew && oldCategory == newCategory && oldAmount.Equal(newAmount) {
		return nil
	}

	if hadOld {
		if err := releaseBudgetSpent(ctx, r.Budgets(), old.BudgetID, oldAmount); err != nil {
			return err
		}
	}
	updated.BudgetID = nil
	if hasNew {
		budgetID, err := bookBudgetSpent(ctx, r.Budgets(), clock.Today(s.clock), updated.UserID, newCategory, newAmount)
		if err != nil {
			return err
		}
		updated.BudgetID = budgetID
	}
	return nil
}

// DeleteTransaction reverts the balance effect and budget contribution of a
// transaction and removes it. The contribution is taken out of the budget it
// was booked to, not the one active today.
func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	var tx *models.Transaction
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		tx, err = r.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return storeErr(err, apperrors.Newf(apperrors.ErrTransactionNotFound, "Transaction %s not found", transactionID))
		}

		accounts, err := lockAccounts(ctx, r.Accounts(), tx.AccountID, stringValue(tx.TransferAccountID))
		if err != nil {
			return err
		}
		source, dest, err := ledgerAccounts(accounts, tx.UserID, tx)
		if err != nil {
			return err
		}
		if err := revertEffect(source, dest, tx.Type, tx.Amount); err != nil {
			return err
		}
		if err := checkBalances(accounts); err != nil {
			return err
		}
		if err := saveBalances(ctx, r.Accounts(), accounts); err != nil {
			return err
		}

		if _, amount, ok := budgetContribution(tx); ok {
			if err := releaseBudgetSpent(ctx, r.Budgets(), tx.BudgetID, amount); err != nil {
				return err
			}
		}

		return storeErr(r.Transactions().Delete(ctx, tx),
			apperrors.Newf(apperrors.ErrTransactionNotFound, "Transaction %s not found", transactionID))
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("transaction deleted", "transaction_id", tx.ID, "account_id", tx.AccountID)
	s.publishTransaction(ctx, events.TransactionDeleted, tx)
	return nil
}

// Transfer moves amount from one account to another and records the movement
// as a TRANSFER transaction owned by the accounts' user.
func (s *transactionService) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	var tx *models.Transaction
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		accounts, err := lockAccounts(ctx, r.Accounts(), fromAccountID, toAccountID)
		if err != nil {
			return err
		}
		source, ok := accounts[fromAccountID]
		if !ok {
			return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Source account not found")
		}
		dest, ok := accounts[toAccountID]
		if !ok {
			return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Destination account not found")
		}
		if fromAccountID == toAccountID {
			return apperrors.ErrSameAccountTransfer
		}

		tx = &models.Transaction{
			UserID:            source.UserID,
			AccountID:         source.ID,
			TransferAccountID: &dest.ID,
			Type:              models.TransactionTypeTransfer,
			Amount:            amount,
			Description:       fmt.Sprintf("Transfer to %s", dest.Name),
			Date:              s.clock.Now().UTC(),
		}
		if _, _, err := ledgerAccounts(accounts, source.UserID, tx); err != nil {
			return err
		}

		if err := applyEffect(source, dest, tx.Type, amount); err != nil {
			return err
		}
		if err := checkBalances(accounts); err != nil {
			return err
		}
		if err := saveBalances(ctx, r.Accounts(), accounts); err != nil {
			return err
		}
		return storeErr(r.Transactions().Create(ctx, tx), apperrors.ErrTransactionNotFound)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("transfer completed",
		"transaction_id", tx.ID,
		"from_account_id", fromAccountID,
		"to_account_id", toAccountID,
		"amount", amount.String(),
	)
	s.publishTransaction(ctx, events.TransferCompleted, tx)
	return tx, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	tx, err := s.store.Transactions().FindByIDAndUser(ctx, transactionID, userID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrTransactionNotFound)
	}
	return tx, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Normalize()

	transactions, total, err := s.store.Transactions().List(ctx, userID, filter, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page, total)
	return &result, nil
}

func (s *transactionService) publishTransaction(ctx context.Context, eventType events.EventType, tx *models.Transaction) {
	publish(ctx, s.publisher, events.LedgerEvent{
		Type:              eventType,
		UserID:            tx.UserID,
		AccountID:         tx.AccountID,
		TransferAccountID: stringValue(tx.TransferAccountID),
		TransactionID:     tx.ID,
		Amount:            tx.Amount,
		OccurredAt:        s.clock.Now(),
	})
}

// ledgerAccounts picks the source and destination of tx from the locked
// accounts and checks that both belong to userID. Transfers also require a
// distinct destination in the same currency.
func ledgerAccounts(accounts map[string]*models.Account, userID string, tx *models.Transaction) (*models.Account, *models.Account, error) {
	source, ok := accounts[tx.AccountID]
	if !ok {
		return nil, nil, apperrors.Newf(apperrors.ErrAccountNotFound, "Account %s not found", tx.AccountID)
	}
	if source.UserID != userID {
		return nil, nil, apperrors.Newf(apperrors.ErrAccountOwnership, "Account %s does not belong to user", source.ID)
	}
	if tx.Type != models.TransactionTypeTransfer {
		return source, nil, nil
	}

	destID := stringValue(tx.TransferAccountID)
	if destID == tx.AccountID {
		return nil, nil, apperrors.ErrSameAccountTransfer
	}
	dest, ok := accounts[destID]
	if !ok {
		return nil, nil, apperrors.WithMessage(apperrors.ErrAccountNotFound, "Destination account not found")
	}
	if dest.UserID != userID {
		return nil, nil, apperrors.Newf(apperrors.ErrAccountOwnership, "Account %s does not belong to user", dest.ID)
	}
	if dest.Currency != source.Currency {
		return nil, nil, apperrors.Newf(apperrors.ErrCurrencyMismatch,
			"Cannot transfer %s to an account in %s", source.Currency, dest.Currency)
	}
	return source, dest, nil
}

// budgetContribution reports the amount a transaction adds to the spent total
// of its category's active budget.
func budgetContribution(tx *models.Transaction) (string, decimal.Decimal, bool) {
	if tx.Type != models.TransactionTypeExpense || tx.CategoryID == nil {
		return "", decimal.Zero, false
	}
	return *tx.CategoryID, tx.Amount, true
}
