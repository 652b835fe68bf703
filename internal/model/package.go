package model

import "time"

// Package represents a purchasable session bundle (a promotion) in
// the `packages` table. Buying and having a package approved
// credits the member's session ledger with Sessions attendances
// valid for DurationDays from approval.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name (e.g. "10 Sessions / 3 Months").
//  Sessions     – number of class attendances granted.
//  DurationDays – validity window in days, counted from approval.
//  PriceCents   – price in the smallest currency unit.
//  IsActive     – whether the package is currently on sale.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Package struct {
	ID           uint64    // packages.id
	Name         string    // packages.name
	Sessions     uint32    // packages.sessions
	DurationDays uint32    // packages.duration_days
	PriceCents   uint32    // packages.price_cents
	IsActive     bool      // packages.is_active
	CreatedAt    time.Time // packages.created_at
	UpdatedAt    time.Time // packages.updated_at
}
