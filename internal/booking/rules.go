// Package booking holds the business rules of the reservation
// workflow: who may book a class, when a reservation may still be
// cancelled and whether a class has room left. The rules are pure
// functions over values the repositories already loaded, so the
// handlers can run them inside the same transaction that mutates
// the session ledger and the roster.
package booking

import (
	"errors"
	"time"
)

// CancelCutoff is how long before the class start a cancellation is
// still accepted. A cancellation at exactly the cutoff instant is
// rejected; only strictly earlier attempts succeed.
const CancelCutoff = 5 * time.Minute

var (
	// ErrNoPackage means the user never had sessions credited.
	ErrNoPackage = errors.New("no session package")
	// ErrPackageExpired means the session package validity window has passed.
	ErrPackageExpired = errors.New("session package expired")
	// ErrNoRemainingSessions means the session balance is exhausted.
	ErrNoRemainingSessions = errors.New("no remaining sessions")
	// ErrClassStarted means the class already began or finished.
	ErrClassStarted = errors.New("class already started")
	// ErrCapacityFull means the class has no free spots left.
	ErrCapacityFull = errors.New("class is full")
	// ErrCutoffPassed means the cancellation window has closed.
	ErrCutoffPassed = errors.New("cancellation cutoff passed")
)

// CanBook reports whether a member with the given session ledger may
// book a class right now. Sessions are consumed per booking, so the
// balance must be positive and the package must not have expired.
// expireAt follows the users.sessions_expire_at column: nil means no
// package was ever credited.
func CanBook(remaining uint32, expireAt *time.Time, now time.Time) error {
	if expireAt == nil {
		return ErrNoPackage
	}
	if now.After(*expireAt) {
		return ErrPackageExpired
	}
	if remaining == 0 {
		return ErrNoRemainingSessions
	}
	return nil
}

// CheckSchedule rejects bookings against classes that already
// started. startsAt equal to now counts as started.
func CheckSchedule(startsAt, now time.Time) error {
	if !startsAt.After(now) {
		return ErrClassStarted
	}
	return nil
}

// CheckCapacity rejects bookings when the class roster is full.
// A capacity of zero means the class is uncapped.
func CheckCapacity(capacity, amount uint32) error {
	if capacity > 0 && amount >= capacity {
		return ErrCapacityFull
	}
	return nil
}

// CanCancel reports whether a reservation for a class starting at
// startsAt may still be cancelled at now. The window closes
// CancelCutoff before the start; the boundary instant itself is
// already inside the window.
func CanCancel(startsAt, now time.Time) error {
	cutoff := startsAt.Add(-CancelCutoff)
	if !now.Before(cutoff) {
		return ErrCutoffPassed
	}
	return nil
}
