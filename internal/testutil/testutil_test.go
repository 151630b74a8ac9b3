package testutil_test

import (
	"testing"
	"time"

	"fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var count int64
	for _, table := range []string{"users", "accounts", "categories", "transactions", "budgets"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	testutil.CreateTestUser(t, first)

	second := testutil.SetupTestDB(t)
	var count int64
	if err := second.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("expected a fresh database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	account := testutil.CreateTestCheckingAccount(t, db, user.ID, "50.00")
	testutil.AssertDecimal(t, "50", account.Balance)

	var reloaded models.Account
	if err := db.First(&reloaded, "id = ?", account.ID).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	testutil.AssertDecimal(t, "50", reloaded.Balance)

	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeIncome, "10.00")
	testutil.AssertDecimal(t, "10", tx.Amount)

	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, "100",
		testutil.Day(2024, time.January, 1), testutil.Day(2024, time.January, 31))
	testutil.AssertDecimal(t, "100", budget.Amount)
	if !budget.Covers(testutil.Day(2024, time.January, 31)) {
		t.Error("budget should cover its end date")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	testutil.AssertKind(t, err, errors.KindNotFound)
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
