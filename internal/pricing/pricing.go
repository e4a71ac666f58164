// Package pricing computes tiered rental quotes: the cheapest applicable
// per-day rate among the item's daily/weekly/monthly price points, plus
// deposit and tax.
package pricing

import (
	"math"

	"studiorent/internal/domain"
)

const (
	// DefaultTaxRate is a platform-wide policy constant, not per resource.
	DefaultTaxRate = 0.10

	// defaultDepositFraction applies when an item requires a deposit but no
	// explicit amount is configured.
	defaultDepositFraction = 0.20
)

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EffectiveDailyRate selects the cheapest applicable per-day rate for the
// given duration. Weekly applies from 7 days, monthly from 30; each tier is
// only used when strictly cheaper than the rate selected so far, so the
// lowest of the three wins for long durations.
func EffectiveDailyRate(rates domain.RateTable, days int) float64 {
	rate := rates.DailyRate
	if days >= 7 && rates.WeeklyRate != nil {
		if weekly := *rates.WeeklyRate / 7; weekly < rate {
			rate = weekly
		}
	}
	if days >= 30 && rates.MonthlyRate != nil {
		if monthly := *rates.MonthlyRate / 30; monthly < rate {
			rate = monthly
		}
	}
	return rate
}

// LineQuote is the priced amount for one (item, quantity, duration) line.
type LineQuote struct {
	EffectiveRate float64 `json:"effective_rate"`
	Subtotal      float64 `json:"subtotal"`
	Deposit       float64 `json:"deposit"`
}

// QuoteLine prices quantity units of an item over days.
func QuoteLine(item *domain.RentalItem, days, quantity int) LineQuote {
	rate := EffectiveDailyRate(item.Rates, days)
	subtotal := Round2(rate * float64(days) * float64(quantity))

	var deposit float64
	if item.RequiresDeposit {
		if item.DepositAmount != nil {
			deposit = Round2(*item.DepositAmount * float64(quantity))
		} else {
			deposit = Round2(subtotal * defaultDepositFraction)
		}
	}

	return LineQuote{EffectiveRate: rate, Subtotal: subtotal, Deposit: deposit}
}

// Tax computes the order-level tax on a subtotal.
func Tax(subtotal, taxRate float64) float64 {
	return Round2(subtotal * taxRate)
}
