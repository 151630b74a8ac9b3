package services

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/repository"
)

// deposit adds amount to the account balance.
func deposit(account *models.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	account.Balance = account.Balance.Add(amount)
	return nil
}

// withdraw subtracts amount from the account balance. Asset accounts must
// hold at least amount; liability accounts may go further negative.
func withdraw(account *models.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if !account.Type.IsLiability() && account.Balance.LessThan(amount) {
		return apperrors.ErrInsufficientFunds
	}
	account.Balance = account.Balance.Sub(amount)
	return nil
}

// applyEffect applies the balance effect of a transaction of the given type.
// dest is the transfer destination and is only used for transfers.
func applyEffect(source, dest *models.Account, txType models.TransactionType, amount decimal.Decimal) error {
	switch txType {
	case models.TransactionTypeIncome:
		return deposit(source, amount)
	case models.TransactionTypeExpense:
		return withdraw(source, amount)
	case models.TransactionTypeTransfer:
		if dest == nil {
			return apperrors.ErrTransferDestination
		}
		if err := withdraw(source, amount); err != nil {
			return err
		}
		return deposit(dest, amount)
	}
	return apperrors.ErrInvalidTransactionType
}

// revertEffect undoes applyEffect. The reversal itself never fails on funds;
// callers check the resulting balances with checkBalances once every effect
// of the operation has been applied.
func revertEffect(source, dest *models.Account, txType models.TransactionType, amount decimal.Decimal) error {
	switch txType {
	case models.TransactionTypeIncome:
		source.Balance = source.Balance.Sub(amount)
	case models.TransactionTypeExpense:
		source.Balance = source.Balance.Add(amount)
	case models.TransactionTypeTransfer:
		if dest == nil {
			return apperrors.ErrTransferDestination
		}
		dest.Balance = dest.Balance.Sub(amount)
		source.Balance = source.Balance.Add(amount)
	default:
		return apperrors.ErrInvalidTransactionType
	}
	return nil
}

// checkBalances validates the balance sign rule on every account.
func checkBalances(accounts map[string]*models.Account) error {
	for _, account := range accounts {
		if err := account.CheckBalance(); err != nil {
			return err
		}
	}
	return nil
}

// saveBalances persists the balance of every account.
func saveBalances(ctx context.Context, repo repository.AccountRepository, accounts map[string]*models.Account) error {
	for _, id := range sortedKeys(accounts) {
		if err := repo.SaveBalance(ctx, accounts[id]); err != nil {
			return storeErr(err, apperrors.ErrAccountNotFound)
		}
	}
	return nil
}

// lockAccounts loads and row-locks the given accounts in id order, so that
// concurrent operations over the same pair of accounts cannot deadlock.
// Missing ids are absent from the result; empty ids are ignored.
func lockAccounts(ctx context.Context, repo repository.AccountRepository, ids ...string) (map[string]*models.Account, error) {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			unique[id] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(unique))
	for id := range unique {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	accounts := make(map[string]*models.Account, len(ordered))
	for _, id := range ordered {
		account, err := repo.FindByIDForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		accounts[id] = account
	}
	return accounts, nil
}

func sortedKeys(m map[string]*models.Account) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// storeErr converts a repository error into an AppError. A missing row becomes
// notFound; AppErrors raised by model hooks pass through unchanged.
func storeErr(err error, notFound *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// writeErr is storeErr for inserts and renames of uniquely named rows: a
// collision with the unique index reports duplicate.
func writeErr(err error, duplicate, notFound *apperrors.AppError) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return duplicate
	}
	return storeErr(err, notFound)
}

// publish delivers a committed ledger event. Failures are logged only: the
// ledger change is already durable.
func publish(ctx context.Context, publisher events.Publisher, event events.LedgerEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Get().Warnw("failed to publish ledger event",
			"type", event.Type,
			"user_id", event.UserID,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
