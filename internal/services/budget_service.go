package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/clock"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/repository"
)

// errNotDue aborts a rollover unit of work for a budget that no longer needs
// one.
var errNotDue = errors.New("budget not due for rollover")

// budgetService handles budget-related business logic.
type budgetService struct {
	store     repository.Store
	clock     clock.Clock
	publisher events.Publisher
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(store repository.Store, clk clock.Clock, publisher events.Publisher) BudgetServicer {
	return &budgetService{store: store, clock: clk, publisher: publisher}
}

// CreateBudget creates a new budget for an expense category. The budget starts
// with nothing spent.
func (s *budgetService) CreateBudget(ctx context.Context, userID string, draft BudgetDraft) (*models.Budget, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !draft.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	period := draft.Period
	if period == "" {
		period = models.BudgetPeriodMonthly
	}
	start, end, err := budgetWindow(period, draft.StartDate, draft.EndDate)
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: draft.CategoryID,
		Name:       name,
		Amount:     draft.Amount,
		Spent:      decimal.Zero,
		Period:     period,
		StartDate:  start,
		EndDate:    end,
	}

	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		if _, err := r.Users().FindByID(ctx, userID); err != nil {
			return storeErr(err, apperrors.ErrUserNotFound)
		}
		if _, err := resolveCategory(ctx, r.Categories(), userID, draft.CategoryID, models.TransactionTypeExpense); err != nil {
			return err
		}
		if err := checkOverlap(ctx, r.Budgets(), budget); err != nil {
			return err
		}
		return storeErr(r.Budgets().Create(ctx, budget), apperrors.ErrBudgetNotFound)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("budget created",
		"budget_id", budget.ID,
		"category_id", budget.CategoryID,
		"start_date", budget.StartDate,
		"end_date", budget.EndDate,
	)
	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(ctx context.Context, userID string, filter BudgetListFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Normalize()

	repoFilter := repository.BudgetFilter{CategoryID: filter.CategoryID}
	if filter.ActiveOnly {
		today := clock.Today(s.clock)
		repoFilter.ActiveOn = &today
	}

	budgets, total, err := s.store.Budgets().ListByUser(ctx, userID, repoFilter, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page, total)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	budget, err := s.store.Budgets().FindByIDAndUser(ctx, budgetID, userID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrBudgetNotFound)
	}
	return budget, nil
}

// UpdateBudget updates an existing budget's fields. Moving the start of the
// window starts a fresh tally: transactions booked so far are detached and
// spent is reset unless an explicit spent value is supplied.
func (s *budgetService) UpdateBudget(ctx context.Context, userID, budgetID string, changes BudgetChanges) (*models.Budget, error) {
	var budget *models.Budget
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		budget, err = r.Budgets().FindByIDForUpdate(ctx, budgetID)
		if err != nil {
			return storeErr(err, apperrors.ErrBudgetNotFound)
		}
		if budget.UserID != userID {
			return apperrors.ErrBudgetNotFound
		}

		if changes.Name != nil {
			name := strings.TrimSpace(*changes.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
			}
			budget.Name = name
		}
		if changes.Amount != nil {
			if !changes.Amount.IsPositive() {
				return apperrors.ErrInvalidAmount
			}
			budget.Amount = *changes.Amount
		}

		if changes.Period != nil || changes.StartDate != nil || changes.EndDate != nil {
			period := budget.Period
			if changes.Period != nil {
				period = *changes.Period
			}
			start := budget.StartDate
			if changes.StartDate != nil {
				start = *changes.StartDate
			}
			end := changes.EndDate
			if end == nil && period == models.BudgetPeriodCustom {
				end = &budget.EndDate
			}
			newStart, newEnd, err := budgetWindow(period, start, end)
			if err != nil {
				return err
			}
			if !newStart.Equal(budget.StartDate) {
				if err := r.Transactions().DetachBudget(ctx, budget.ID); err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if changes.Spent == nil {
					budget.Spent = decimal.Zero
				}
			}
			budget.Period = period
			budget.StartDate = newStart
			budget.EndDate = newEnd

			if err := checkOverlap(ctx, r.Budgets(), budget); err != nil {
				return err
			}
		}

		if changes.Spent != nil {
			if changes.Spent.IsNegative() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "spent cannot be negative")
			}
			budget.Spent = *changes.Spent
		}

		return storeErr(r.Budgets().Save(ctx, budget), apperrors.ErrBudgetNotFound)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.store.Budgets().Delete(ctx, budget); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress reports the tracked spending against the budget amount.
func (s *budgetService) GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	var percentage float64
	if budget.Amount.IsPositive() {
		percentage = budget.Spent.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}

	return &BudgetProgress{
		BudgetID:   budget.ID,
		Budgeted:   budget.Amount,
		Spent:      budget.Spent,
		Remaining:  budget.Amount.Sub(budget.Spent),
		Percentage: percentage,
	}, nil
}

// UpdateBudgetSpentAmount adds amount to the spent total of the user's budget
// for the category that is active today. Without such a budget it does nothing.
func (s *budgetService) UpdateBudgetSpentAmount(ctx context.Context, userID, categoryID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}

	return s.store.Atomic(ctx, func(r repository.Repositories) error {
		if _, err := r.Users().FindByID(ctx, userID); err != nil {
			return storeErr(err, apperrors.ErrUserNotFound)
		}
		if _, err := r.Categories().FindByID(ctx, categoryID); err != nil {
			return storeErr(err, apperrors.ErrCategoryNotFound)
		}
		_, err := bookBudgetSpent(ctx, r.Budgets(), clock.Today(s.clock), userID, categoryID, amount)
		return err
	})
}

// ResetBudgetSpentAmount sets the spent total of a budget to zero. The
// transactions booked to it are detached, so deleting them later does not
// lower the new tally.
func (s *budgetService) ResetBudgetSpentAmount(ctx context.Context, budgetID string) error {
	return s.store.Atomic(ctx, func(r repository.Repositories) error {
		if err := r.Transactions().DetachBudget(ctx, budgetID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		budget, err := r.Budgets().FindByIDForUpdate(ctx, budgetID)
		if err != nil {
			return storeErr(err, apperrors.Newf(apperrors.ErrBudgetNotFound, "Budget %s not found", budgetID))
		}
		return resetSpent(ctx, r.Budgets(), budget)
	})
}

// RollOverExpiredBudgets moves every recurring budget whose window has ended
// forward by whole periods until it covers today, and resets its spent total.
// Budgets whose next window would overlap another budget are left alone.
func (s *budgetService) RollOverExpiredBudgets(ctx context.Context) (int, error) {
	today := clock.Today(s.clock)
	log := logger.Get()

	expired, err := s.store.Budgets().FindExpired(ctx, today)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rolled := 0
	for _, candidate := range expired {
		if candidate.Period == models.BudgetPeriodCustom {
			continue
		}

		var budget *models.Budget
		err := s.store.Atomic(ctx, func(r repository.Repositories) error {
			// Transactions are locked before the budget, as in the
			// transaction paths.
			if err := r.Transactions().DetachBudget(ctx, candidate.ID); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			var err error
			budget, err = r.Budgets().FindByIDForUpdate(ctx, candidate.ID)
			if err != nil {
				return storeErr(err, apperrors.ErrBudgetNotFound)
			}
			if !budget.EndDate.Before(today) {
				return errNotDue
			}

			start, end := budget.StartDate, budget.EndDate
			for end.Before(today) {
				var ok bool
				start, end, ok = budget.Period.Next(end)
				if !ok {
					return errNotDue
				}
			}
			budget.StartDate, budget.EndDate = start, end

			if err := checkOverlap(ctx, r.Budgets(), budget); err != nil {
				return err
			}
			return resetSpent(ctx, r.Budgets(), budget)
		})
		if errors.Is(err, errNotDue) {
			continue
		}
		if err != nil {
			log.Warnw("budget rollover skipped", "budget_id", candidate.ID, "error", err)
			continue
		}

		rolled++
		log.Infow("budget rolled over",
			"budget_id", budget.ID,
			"start_date", budget.StartDate,
			"end_date", budget.EndDate,
		)
		publish(ctx, s.publisher, events.LedgerEvent{
			Type:       events.BudgetRolledOver,
			UserID:     budget.UserID,
			BudgetID:   budget.ID,
			Amount:     budget.Amount,
			OccurredAt: s.clock.Now(),
		})
	}
	return rolled, nil
}

// budgetWindow normalizes the budget dates and derives the end date from the
// period when none is given.
func budgetWindow(period models.BudgetPeriod, start time.Time, end *time.Time) (time.Time, time.Time, error) {
	switch period {
	case models.BudgetPeriodWeekly, models.BudgetPeriodMonthly, models.BudgetPeriodQuarterly,
		models.BudgetPeriodYearly, models.BudgetPeriodCustom:
	default:
		return time.Time{}, time.Time{}, apperrors.Newf(apperrors.ErrInvalidInput, "unsupported budget period %q", period)
	}
	if start.IsZero() {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidBudgetDate, "Budget start date is required")
	}
	start = clock.Date(start)

	if end == nil {
		_, derived, ok := period.Next(start.AddDate(0, 0, -1))
		if !ok {
			return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidBudgetDate, "Custom budgets require an end date")
		}
		return start, derived, nil
	}

	last := clock.Date(*end)
	if last.Before(start) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidBudgetDate
	}
	return start, last, nil
}

func checkOverlap(ctx context.Context, repo repository.BudgetRepository, budget *models.Budget) error {
	overlap, err := repo.HasOverlap(ctx, budget.UserID, budget.CategoryID, budget.StartDate, budget.EndDate, budget.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if overlap {
		return apperrors.Newf(apperrors.ErrBudgetOverlap,
			"A budget for this category already covers part of %s to %s",
			budget.StartDate.Format(time.DateOnly), budget.EndDate.Format(time.DateOnly))
	}
	return nil
}

func resetSpent(ctx context.Context, repo repository.BudgetRepository, budget *models.Budget) error {
	budget.Spent = decimal.Zero
	return storeErr(repo.Save(ctx, budget), apperrors.ErrBudgetNotFound)
}

// bookBudgetSpent adds amount to the spent total of the first budget of the
// user for categoryID that is active on day, and returns that budget's ID.
// Without an active budget it returns nil.
func bookBudgetSpent(ctx context.Context, repo repository.BudgetRepository, day time.Time, userID, categoryID string, amount decimal.Decimal) (*string, error) {
	active, err := repo.FindActiveForUpdate(ctx, userID, day)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range active {
		budget := &active[i]
		if budget.CategoryID != categoryID {
			continue
		}
		budget.Spent = budget.Spent.Add(amount)
		if err := storeErr(repo.Save(ctx, budget), apperrors.ErrBudgetNotFound); err != nil {
			return nil, err
		}
		return &budget.ID, nil
	}
	return nil, nil
}

// releaseBudgetSpent takes amount back out of the budget it was booked to.
// Spent never drops below zero. Nothing happens when the transaction was never
// booked, was detached by a reset, or its budget has been deleted.
func releaseBudgetSpent(ctx context.Context, repo repository.BudgetRepository, budgetID *string, amount decimal.Decimal) error {
	if budgetID == nil {
		return nil
	}
	budget, err := repo.FindByIDForUpdate(ctx, *budgetID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget.Spent = budget.Spent.Sub(amount)
	if budget.Spent.IsNegative() {
		budget.Spent = decimal.Zero
	}
	return storeErr(repo.Save(ctx, budget), apperrors.ErrBudgetNotFound)
}
