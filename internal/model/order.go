package model

import "time"

// Order statuses. An order starts PENDING and is decided exactly
// once by an admin; only the APPROVED transition credits sessions.
const (
	OrderStatusPending  = "PENDING"
	OrderStatusApproved = "APPROVED"
	OrderStatusRejected = "REJECTED"
)

// Order records a member's purchase of a session package in the
// `orders` table. The reference is a UUID handed to the member as
// a receipt number. Approval credits the user's session ledger and
// extends the expiry by the package's duration.
//
// Fields:
//  ID         – primary key identifier.
//  Reference  – UUID receipt reference, unique.
//  UserID     – purchasing member.
//  PackageID  – package being bought.
//  Status     – PENDING, APPROVED or REJECTED.
//  ApprovedAt – when the order was decided (null while pending).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Order struct {
	ID         uint64     // orders.id
	Reference  string     // orders.reference
	UserID     uint64     // orders.user_id
	PackageID  uint64     // orders.package_id
	Status     string     // orders.status
	ApprovedAt *time.Time // orders.approved_at (nullable)
	CreatedAt  time.Time  // orders.created_at
	UpdatedAt  time.Time  // orders.updated_at
}
