package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fintrack/internal/clock"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/repository"
	"fintrack/internal/testutil"
)

func init() {
	logger.Init("test")
}

// testNow is the pinned current time of every service under test.
var testNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	db        *gorm.DB
	store     repository.Store
	clock     clock.Clock
	publisher *events.MemoryPublisher

	users        UserServicer
	accounts     AccountServicer
	categories   CategoryServicer
	transactions TransactionServicer
	budgets      BudgetServicer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, testNow)
}

func newTestEnvAt(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	env := &testEnv{db: db, publisher: &events.MemoryPublisher{}}
	return env.build(repository.NewStore(db), clock.Fixed(now))
}

// build returns services over store and clk that share the database and
// publisher of env.
func (env *testEnv) build(store repository.Store, clk clock.Clock) *testEnv {
	return &testEnv{
		db:           env.db,
		store:        store,
		clock:        clk,
		publisher:    env.publisher,
		users:        &userService{store: store, cost: bcrypt.MinCost},
		accounts:     NewAccountService(store, clk, env.publisher),
		categories:   NewCategoryService(store),
		transactions: NewTransactionService(store, clk, env.publisher),
		budgets:      NewBudgetService(store, clk, env.publisher),
	}
}

// at returns services over the same store whose clock reads now.
func (env *testEnv) at(now time.Time) *testEnv {
	return env.build(env.store, clock.Fixed(now))
}

// racing returns services whose units of work see the repositories built by
// patch. It stages what a request racing another one would observe.
func (env *testEnv) racing(patch func(repository.Repositories) patchedRepositories) *testEnv {
	return env.build(racingStore{Store: env.store, patch: patch}, env.clock)
}

type racingStore struct {
	repository.Store
	patch func(repository.Repositories) patchedRepositories
}

func (s racingStore) Atomic(ctx context.Context, fn func(r repository.Repositories) error) error {
	return s.Store.Atomic(ctx, func(r repository.Repositories) error {
		return fn(s.patch(r))
	})
}

// patchedRepositories replaces the non-nil repositories of the embedded set.
type patchedRepositories struct {
	repository.Repositories
	users        repository.UserRepository
	accounts     repository.AccountRepository
	categories   repository.CategoryRepository
	transactions repository.TransactionRepository
}

func (r patchedRepositories) Users() repository.UserRepository {
	if r.users != nil {
		return r.users
	}
	return r.Repositories.Users()
}

func (r patchedRepositories) Accounts() repository.AccountRepository {
	if r.accounts != nil {
		return r.accounts
	}
	return r.Repositories.Accounts()
}

func (r patchedRepositories) Categories() repository.CategoryRepository {
	if r.categories != nil {
		return r.categories
	}
	return r.Repositories.Categories()
}

func (r patchedRepositories) Transactions() repository.TransactionRepository {
	if r.transactions != nil {
		return r.transactions
	}
	return r.Repositories.Transactions()
}

// staleTransactions hands out a snapshot taken before another request
// changed the row.
type staleTransactions struct {
	repository.TransactionRepository
	snapshot models.Transaction
}

func (r staleTransactions) FindByIDForUpdate(context.Context, string) (*models.Transaction, error) {
	tx := r.snapshot
	return &tx, nil
}

// Name lookups that miss a row committed by a concurrent insert.
type (
	blindUsers      struct{ repository.UserRepository }
	blindAccounts   struct{ repository.AccountRepository }
	blindCategories struct{ repository.CategoryRepository }
)

func (blindUsers) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }
func (blindUsers) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }

func (blindAccounts) ExistsByName(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (blindCategories) ExistsByName(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func namesRacing(r repository.Repositories) patchedRepositories {
	return patchedRepositories{
		Repositories: r,
		users:        blindUsers{r.Users()},
		accounts:     blindAccounts{r.Accounts()},
		categories:   blindCategories{r.Categories()},
	}
}
