package domain

import "time"

// TimeoutDuration is the fixed cooldown length. An active timeout always runs
// to completion; there is no pause or cancel.
const TimeoutDuration = 30 * time.Minute

// Timeout freezes point transfers for both parties of a connection. Expiry is
// never driven by a live timer: it is recomputed from StartedAt on every
// observation, so the state survives restarts and offline gaps.
type Timeout struct {
	ID           string
	UserID       string
	ConnectionID string
	StartedAt    time.Time
	Active       bool
	CreatedAt    time.Time
}

// Deadline returns the instant the timeout stops applying.
func (t *Timeout) Deadline() time.Time {
	return t.StartedAt.Add(TimeoutDuration)
}

// Expired reports whether the timeout's deadline has passed at now.
func (t *Timeout) Expired(now time.Time) bool {
	return !now.Before(t.Deadline())
}

// InEffect reports whether transfers are frozen at now.
func (t *Timeout) InEffect(now time.Time) bool {
	return t.Active && !t.Expired(now)
}

// Remaining returns the time left until expiry, never negative. Pure over its
// inputs; periodic re-evaluation for display is a presentation concern.
func Remaining(now, startedAt time.Time) time.Duration {
	left := TimeoutDuration - now.Sub(startedAt)
	if left < 0 {
		return 0
	}
	return left
}
