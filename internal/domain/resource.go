package domain

import (
	"fmt"
	"time"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotBlocked   SlotStatus = "blocked"
)

// Slot is a pre-partitioned studio session: one calendar date, one
// [start, end) time window, capacity 1.
type Slot struct {
	ID        int64      `json:"id"`
	PackageID int64      `json:"package_id" validate:"required"`
	Date      time.Time  `json:"date" validate:"required"`
	StartTime string     `json:"start_time" validate:"required"` // "15:04"
	EndTime   string     `json:"end_time" validate:"required"`
	Price     float64    `json:"price" validate:"gte=0"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (s *Slot) IsAvailable() bool {
	return s.Status == SlotAvailable && s.DeletedAt == nil
}

// StartInstant combines Date and StartTime into a single UTC instant.
func (s *Slot) StartInstant() (time.Time, error) {
	return combine(s.Date, s.StartTime)
}

func (s *Slot) EndInstant() (time.Time, error) {
	return combine(s.Date, s.EndTime)
}

func combine(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time of day %q: %w", hhmm, err)
	}
	d := date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

type ItemCondition string

const (
	ConditionGood        ItemCondition = "good"
	ConditionFair        ItemCondition = "fair"
	ConditionNeedsRepair ItemCondition = "needs_repair"
)

// RateTable holds the tiered per-period prices for a rental item. Weekly and
// monthly rates are optional; when set they are totals for 7 and 30 days.
type RateTable struct {
	DailyRate   float64  `json:"daily_rate" validate:"required,gt=0"`
	WeeklyRate  *float64 `json:"weekly_rate,omitempty"`
	MonthlyRate *float64 `json:"monthly_rate,omitempty"`
}

// RentalItem is a shared-capacity resource: TotalQuantity identical units
// rentable over inclusive date ranges. Availability per period is derived
// from active reservation sums, never stored as a counter.
type RentalItem struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name" validate:"required"`
	Category      string        `json:"category,omitempty"`
	Condition     ItemCondition `json:"condition"`
	TotalQuantity int           `json:"total_quantity" validate:"required,gt=0"`
	Rates         RateTable     `json:"rates"`
	MinRentalDays int           `json:"min_rental_days"`
	MaxRentalDays int           `json:"max_rental_days"`

	RequiresDeposit bool     `json:"requires_deposit"`
	DepositAmount   *float64 `json:"deposit_amount,omitempty"`

	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (i *RentalItem) IsAvailable() bool {
	return i.IsActive && i.DeletedAt == nil && i.Condition != ConditionNeedsRepair
}

// AllowsDuration checks days against the item's configured rental bounds.
// A zero bound means unbounded on that side.
func (i *RentalItem) AllowsDuration(days int) bool {
	if days < 1 {
		return false
	}
	if i.MinRentalDays > 0 && days < i.MinRentalDays {
		return false
	}
	if i.MaxRentalDays > 0 && days > i.MaxRentalDays {
		return false
	}
	return true
}
