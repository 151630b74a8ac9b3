package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestApplyAndRevertEffect(t *testing.T) {
	money := testutil.Money

	tests := []struct {
		name        string
		txType      models.TransactionType
		amount      string
		wantSource  string
		wantDest    string
		sourceStart string
	}{
		{name: "income", txType: models.TransactionTypeIncome, amount: "25.50", sourceStart: "100", wantSource: "125.50", wantDest: "10"},
		{name: "expense", txType: models.TransactionTypeExpense, amount: "40", sourceStart: "100", wantSource: "60", wantDest: "10"},
		{name: "transfer", txType: models.TransactionTypeTransfer, amount: "30", sourceStart: "100", wantSource: "70", wantDest: "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &models.Account{Type: models.AccountTypeChecking, Balance: money(tt.sourceStart)}
			dest := &models.Account{Type: models.AccountTypeSavings, Balance: money("10")}

			require.NoError(t, applyEffect(source, dest, tt.txType, money(tt.amount)))
			testutil.AssertDecimal(t, tt.wantSource, source.Balance)
			testutil.AssertDecimal(t, tt.wantDest, dest.Balance)

			require.NoError(t, revertEffect(source, dest, tt.txType, money(tt.amount)))
			testutil.AssertDecimal(t, tt.sourceStart, source.Balance)
			testutil.AssertDecimal(t, "10", dest.Balance)
		})
	}
}

func TestWithdraw(t *testing.T) {
	money := testutil.Money

	t.Run("asset_requires_funds", func(t *testing.T) {
		account := &models.Account{Type: models.AccountTypeCash, Balance: money("10")}
		err := withdraw(account, money("10.01"))
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
		testutil.AssertDecimal(t, "10", account.Balance)
	})

	t.Run("asset_can_reach_zero", func(t *testing.T) {
		account := &models.Account{Type: models.AccountTypeSavings, Balance: money("10")}
		require.NoError(t, withdraw(account, money("10")))
		assert.True(t, account.Balance.IsZero())
	})

	t.Run("liability_goes_negative", func(t *testing.T) {
		for _, accountType := range []models.AccountType{models.AccountTypeCreditCard, models.AccountTypeLoan} {
			account := &models.Account{Type: accountType, Balance: money("0")}
			require.NoError(t, withdraw(account, money("250")))
			testutil.AssertDecimal(t, "-250", account.Balance)
		}
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		account := &models.Account{Type: models.AccountTypeChecking, Balance: money("10")}
		assert.ErrorIs(t, withdraw(account, money("0")), apperrors.ErrInvalidAmount)
		assert.ErrorIs(t, deposit(account, money("-1")), apperrors.ErrInvalidAmount)
		testutil.AssertDecimal(t, "10", account.Balance)
	})
}

func TestApplyEffect_TransferWithoutDestination(t *testing.T) {
	source := &models.Account{Type: models.AccountTypeChecking, Balance: testutil.Money("10")}
	err := applyEffect(source, nil, models.TransactionTypeTransfer, testutil.Money("1"))
	assert.ErrorIs(t, err, apperrors.ErrTransferDestination)
	testutil.AssertDecimal(t, "10", source.Balance)
}

func TestRevertEffect_DefersSignCheck(t *testing.T) {
	accounts := map[string]*models.Account{
		"a": {Type: models.AccountTypeChecking, Balance: testutil.Money("5")},
	}
	require.NoError(t, revertEffect(accounts["a"], nil, models.TransactionTypeIncome, testutil.Money("20")))
	testutil.AssertAppError(t, checkBalances(accounts), "NEGATIVE_BALANCE")
}
