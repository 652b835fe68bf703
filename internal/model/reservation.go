package model

import "time"

// Reservation statuses. Cancellation is a soft state change so that
// booking history survives for reporting; rows are never deleted.
const (
	ReservationStatusReserved  = "RESERVED"
	ReservationStatusCancelled = "CANCELLED"
)

// Reservation records a member's booking for a specific scheduled
// class in the `reservations` table. A (user, class) pair has at
// most one RESERVED row at any time; re-booking after a
// cancellation creates a new row.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – member who made the reservation.
//  ClassID     – class being reserved.
//  Status      – RESERVED or CANCELLED.
//  ReservedAt  – when the booking was created.
//  CancelledAt – when the booking was cancelled (null while active).
type Reservation struct {
	ID          uint64     // reservations.id
	UserID      uint64     // reservations.user_id
	ClassID     uint64     // reservations.class_id
	Status      string     // reservations.status
	ReservedAt  time.Time  // reservations.reserved_at
	CancelledAt *time.Time // reservations.cancelled_at (nullable)
}
