package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"studiorent/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func TestEffectiveDailyRate(t *testing.T) {
	rates := domain.RateTable{
		DailyRate:   100,
		WeeklyRate:  fptr(560), // 80/day
		MonthlyRate: fptr(1800), // 60/day
	}

	tests := []struct {
		name     string
		days     int
		expected float64
	}{
		{"short rental uses daily", 3, 100},
		{"six days still daily", 6, 100},
		{"week threshold switches to weekly", 7, 80},
		{"under a month stays weekly", 29, 80},
		{"month threshold switches to monthly", 30, 60},
		{"long rental keeps monthly", 90, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EffectiveDailyRate(rates, tt.days), 1e-9)
		})
	}
}

func TestEffectiveDailyRateIgnoresWorseTiers(t *testing.T) {
	// weekly more expensive per day than daily: never selected
	rates := domain.RateTable{DailyRate: 50, WeeklyRate: fptr(420)} // 60/day
	assert.InDelta(t, 50, EffectiveDailyRate(rates, 10), 1e-9)

	// monthly worse than weekly: weekly wins even past 30 days
	rates = domain.RateTable{DailyRate: 100, WeeklyRate: fptr(350), MonthlyRate: fptr(1650)}
	assert.InDelta(t, 50, EffectiveDailyRate(rates, 45), 1e-9)
}

func TestEffectiveDailyRateMonotonic(t *testing.T) {
	rates := domain.RateTable{DailyRate: 100, WeeklyRate: fptr(560), MonthlyRate: fptr(1800)}
	prev := EffectiveDailyRate(rates, 1)
	for days := 2; days <= 120; days++ {
		cur := EffectiveDailyRate(rates, days)
		assert.LessOrEqual(t, cur, prev, "rate increased at %d days", days)
		prev = cur
	}
}

func TestQuoteLine(t *testing.T) {
	item := &domain.RentalItem{
		Rates:           domain.RateTable{DailyRate: 45.50},
		RequiresDeposit: true,
	}

	q := QuoteLine(item, 4, 2)
	assert.InDelta(t, 45.50, q.EffectiveRate, 1e-9)
	assert.InDelta(t, 364.00, q.Subtotal, 1e-9)
	// no explicit deposit configured: 20% of subtotal
	assert.InDelta(t, 72.80, q.Deposit, 1e-9)
}

func TestQuoteLineExplicitDeposit(t *testing.T) {
	item := &domain.RentalItem{
		Rates:           domain.RateTable{DailyRate: 100},
		RequiresDeposit: true,
		DepositAmount:   fptr(150),
	}
	q := QuoteLine(item, 2, 3)
	assert.InDelta(t, 600, q.Subtotal, 1e-9)
	assert.InDelta(t, 450, q.Deposit, 1e-9)
}

func TestQuoteLineNoDepositRequired(t *testing.T) {
	item := &domain.RentalItem{Rates: domain.RateTable{DailyRate: 100}}
	q := QuoteLine(item, 5, 1)
	assert.Zero(t, q.Deposit)
}

func TestTax(t *testing.T) {
	assert.InDelta(t, 36.40, Tax(364.00, DefaultTaxRate), 1e-9)
	assert.InDelta(t, 0.11, Tax(1.05, DefaultTaxRate), 1e-9)
}
