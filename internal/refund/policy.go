// Package refund holds the cancellation refund policies. Slot bookings and
// equipment rentals run two independently configurable tables: slots grade
// on whole days until the session date, rentals on hours until the rental
// starts. Both are non-increasing step functions of lead time.
package refund

import (
	"math"
	"time"
)

// Step is one tier of a refund table: the refund fraction that applies when
// the lead time is strictly greater than MoreThan.
type Step struct {
	MoreThan time.Duration
	Fraction float64
}

// Policy is an ordered refund table plus the lock-out window inside which
// cancellation itself is rejected. Steps must be sorted by MoreThan
// descending; the first matching step wins.
type Policy struct {
	Steps   []Step
	LockOut time.Duration
}

// DefaultSlotPolicy grades on days until the booking date:
// >7d 100%, 3-7d 75%, 1-2d 50%, otherwise ineligible.
func DefaultSlotPolicy() Policy {
	return Policy{
		Steps: []Step{
			{MoreThan: 7 * 24 * time.Hour, Fraction: 1.00},
			{MoreThan: 2 * 24 * time.Hour, Fraction: 0.75},
			{MoreThan: 0, Fraction: 0.50},
		},
		LockOut: 24 * time.Hour,
	}
}

// DefaultRentalPolicy grades on hours until the rental start:
// >72h 90%, >48h 70%, >24h 50%, at or under 24h nothing.
func DefaultRentalPolicy() Policy {
	return Policy{
		Steps: []Step{
			{MoreThan: 72 * time.Hour, Fraction: 0.90},
			{MoreThan: 48 * time.Hour, Fraction: 0.70},
			{MoreThan: 24 * time.Hour, Fraction: 0.50},
		},
		LockOut: 24 * time.Hour,
	}
}

// Fraction returns the refund fraction for the given lead time. Zero when no
// step matches.
func (p Policy) Fraction(lead time.Duration) float64 {
	for _, s := range p.Steps {
		if lead > s.MoreThan {
			return s.Fraction
		}
	}
	return 0
}

// CancellationAllowed reports whether the lead time clears the lock-out
// window.
func (p Policy) CancellationAllowed(lead time.Duration) bool {
	return lead > p.LockOut
}

// Eligibility is the outcome of a refund computation against a policy.
type Eligibility struct {
	Eligible  bool    `json:"eligible"`
	Fraction  float64 `json:"percentage"`
	MaxAmount float64 `json:"max_amount"`
	Reason    string  `json:"reason,omitempty"`
}

// Evaluate computes eligibility for a reservation starting at start, with
// paid the amount actually collected.
func (p Policy) Evaluate(now, start time.Time, paid float64) Eligibility {
	lead := start.Sub(now)
	if !p.CancellationAllowed(lead) {
		return Eligibility{Reason: "inside cancellation lock-out window"}
	}
	frac := p.Fraction(lead)
	if frac <= 0 || paid <= 0 {
		return Eligibility{Eligible: frac > 0, Fraction: frac, Reason: "nothing to refund"}
	}
	return Eligibility{
		Eligible:  true,
		Fraction:  frac,
		MaxAmount: round2(paid * frac),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
