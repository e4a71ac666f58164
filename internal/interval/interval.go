package interval

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Zero-length intervals never
// overlap anything.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aStart.Before(aEnd) || !bStart.Before(bEnd) {
		return false
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DateRange is an inclusive day range: [Start, End], both at midnight UTC.
// Rental reservations use inclusive-day semantics; all overlap checks
// normalize to half-open before comparing.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to midnight UTC.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Valid reports whether End is on or after Start.
func (r DateRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// InPast reports whether the range starts before today relative to now.
func (r DateRange) InPast(now time.Time) bool {
	return r.Start.Before(Day(now))
}

// Days is the inclusive span in days: a single-day range counts as 1.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Normalize returns the equivalent half-open pair [Start, End+1d).
func (r DateRange) Normalize() (time.Time, time.Time) {
	return r.Start, r.End.Add(24 * time.Hour)
}

// OverlapsRange applies Overlaps to the half-open forms of both ranges.
func (r DateRange) OverlapsRange(o DateRange) bool {
	aStart, aEnd := r.Normalize()
	bStart, bEnd := o.Normalize()
	return Overlaps(aStart, aEnd, bStart, bEnd)
}
