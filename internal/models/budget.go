package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod labels the length of a budget's window.
type BudgetPeriod string

const (
	BudgetPeriodWeekly    BudgetPeriod = "WEEKLY"
	BudgetPeriodMonthly   BudgetPeriod = "MONTHLY"
	BudgetPeriodQuarterly BudgetPeriod = "QUARTERLY"
	BudgetPeriodYearly    BudgetPeriod = "YEARLY"
	BudgetPeriodCustom    BudgetPeriod = "CUSTOM"
)

// Next returns the window that starts the day after end and spans one period.
// Custom periods have no successor.
func (p BudgetPeriod) Next(end time.Time) (time.Time, time.Time, bool) {
	var years, months, days int
	switch p {
	case BudgetPeriodWeekly:
		days = 7
	case BudgetPeriodMonthly:
		months = 1
	case BudgetPeriodQuarterly:
		months = 3
	case BudgetPeriodYearly:
		years = 1
	default:
		return time.Time{}, time.Time{}, false
	}
	start := end.AddDate(0, 0, 1)
	return start, start.AddDate(years, months, days-1), true
}

// Budget caps spending for one category over the closed range [StartDate, EndDate].
type Budget struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Name       string          `gorm:"not null" json:"name"`
	Amount     decimal.Decimal `gorm:"type:numeric(19,4);not null" json:"amount"`
	Spent      decimal.Decimal `gorm:"type:numeric(19,4);not null;default:0" json:"spent"`
	Period     BudgetPeriod    `gorm:"not null" json:"period"`
	StartDate  time.Time       `gorm:"not null" json:"start_date"`
	EndDate    time.Time       `gorm:"not null" json:"end_date"`
}

// Covers reports whether day falls inside the budget's date range.
func (b *Budget) Covers(day time.Time) bool {
	return !day.Before(b.StartDate) && !day.After(b.EndDate)
}
