package domain

import "time"

// Daily timeout allowance: one request per account per local calendar day.
// The boundary is local midnight in loc and the allowance resets by
// recomputation, not by any batch job.

// AllowanceUsedToday reports whether lastUsed falls on the same local
// calendar day as now. A nil lastUsed means the allowance was never used.
func AllowanceUsedToday(lastUsed *time.Time, now time.Time, loc *time.Location) bool {
	if lastUsed == nil {
		return false
	}

	ly, lm, ld := lastUsed.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()

	return ly == ny && lm == nm && ld == nd
}

// CanRequestTimeout is the eligibility check consumed by the timeout
// coordinator.
func CanRequestTimeout(lastUsed *time.Time, now time.Time, loc *time.Location) bool {
	return !AllowanceUsedToday(lastUsed, now, loc)
}

// NextAllowanceAt returns the local-midnight instant after which the
// allowance becomes available again. Returns now when it already is.
func NextAllowanceAt(lastUsed *time.Time, now time.Time, loc *time.Location) time.Time {
	if CanRequestTimeout(lastUsed, now, loc) {
		return now
	}

	y, m, d := now.In(loc).Date()

	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
