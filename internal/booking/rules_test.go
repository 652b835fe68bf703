package booking

import (
	"errors"
	"testing"
	"time"
)

func TestCanCancelCutoff(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want error
	}{
		{"six minutes before", start.Add(-6 * time.Minute), nil},
		{"exactly at cutoff", start.Add(-5 * time.Minute), ErrCutoffPassed},
		{"four minutes before", start.Add(-4 * time.Minute), ErrCutoffPassed},
		{"after start", start.Add(time.Minute), ErrCutoffPassed},
		{"one second outside cutoff", start.Add(-5*time.Minute - time.Second), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanCancel(start, tc.now); !errors.Is(got, tc.want) && got != tc.want {
				t.Errorf("CanCancel(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestCanBook(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name      string
		remaining uint32
		expireAt  *time.Time
		want      error
	}{
		{"never purchased", 5, nil, ErrNoPackage},
		{"expired package", 5, &past, ErrPackageExpired},
		{"zero balance", 0, &future, ErrNoRemainingSessions},
		{"ok", 1, &future, nil},
		{"expiry exactly now", 1, &now, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanBook(tc.remaining, tc.expireAt, now); got != tc.want {
				t.Errorf("CanBook(%d, %v) = %v, want %v", tc.remaining, tc.expireAt, got, tc.want)
			}
		})
	}
}

func TestCheckSchedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := CheckSchedule(now.Add(time.Hour), now); err != nil {
		t.Errorf("future class: %v", err)
	}
	if err := CheckSchedule(now, now); err != ErrClassStarted {
		t.Errorf("class starting now: got %v, want ErrClassStarted", err)
	}
	if err := CheckSchedule(now.Add(-time.Hour), now); err != ErrClassStarted {
		t.Errorf("past class: got %v, want ErrClassStarted", err)
	}
}

func TestCheckCapacity(t *testing.T) {
	if err := CheckCapacity(0, 9999); err != nil {
		t.Errorf("uncapped class: %v", err)
	}
	if err := CheckCapacity(10, 9); err != nil {
		t.Errorf("one spot left: %v", err)
	}
	if err := CheckCapacity(10, 10); err != ErrCapacityFull {
		t.Errorf("full class: got %v, want ErrCapacityFull", err)
	}
}

// TestBookingScenario walks the rules through the lifecycle of one
// member booking and cancelling a class: five sessions valid for
// thirty days, a class with an empty roster, one booking then one
// in-window cancellation. The roster count and session balance must
// mirror each other after every step.
func TestBookingScenario(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.Add(30 * 24 * time.Hour)
	classStart := now.Add(48 * time.Hour)

	remaining := uint32(5)
	amount := uint32(0)

	// Book.
	if err := CanBook(remaining, &expiry, now); err != nil {
		t.Fatalf("CanBook: %v", err)
	}
	if err := CheckSchedule(classStart, now); err != nil {
		t.Fatalf("CheckSchedule: %v", err)
	}
	if err := CheckCapacity(20, amount); err != nil {
		t.Fatalf("CheckCapacity: %v", err)
	}
	remaining--
	amount++
	if remaining != 4 || amount != 1 {
		t.Fatalf("after booking: remaining=%d amount=%d", remaining, amount)
	}

	// Cancel well outside the cutoff window.
	if err := CanCancel(classStart, now.Add(time.Hour)); err != nil {
		t.Fatalf("CanCancel: %v", err)
	}
	remaining++
	amount--
	if remaining != 5 || amount != 0 {
		t.Fatalf("after cancellation: remaining=%d amount=%d", remaining, amount)
	}
}

// TestRosterAccounting checks that N bookings followed by M
// cancellations leave the roster at N-M, with the session balance
// moving in lockstep the opposite way.
func TestRosterAccounting(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.Add(30 * 24 * time.Hour)
	classStart := now.Add(24 * time.Hour)

	const n, m = 7, 3
	remaining := uint32(10)
	amount := uint32(0)

	for i := 0; i < n; i++ {
		if err := CanBook(remaining, &expiry, now); err != nil {
			t.Fatalf("booking %d: %v", i, err)
		}
		if err := CheckCapacity(0, amount); err != nil {
			t.Fatalf("booking %d: %v", i, err)
		}
		remaining--
		amount++
	}
	for i := 0; i < m; i++ {
		if err := CanCancel(classStart, now); err != nil {
			t.Fatalf("cancellation %d: %v", i, err)
		}
		remaining++
		amount--
	}
	if amount != n-m {
		t.Errorf("amount = %d, want %d", amount, n-m)
	}
	if remaining != 10-(n-m) {
		t.Errorf("remaining = %d, want %d", remaining, 10-(n-m))
	}
}
