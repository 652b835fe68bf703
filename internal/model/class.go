package model

import "time"

// Class represents one scheduled occurrence of a yoga class in the
// `classes` table. Each class has its own time window and room
// metadata. The instructor column is free text: an empty string
// means the class is still unassigned and an instructor may claim
// it. Amount is the count of active reservations and is always
// recomputed from the reservations table inside mutating
// transactions, never maintained by client arithmetic.
//
// Fields:
//  ID         – primary key identifier.
//  Title      – class title (e.g. "Vinyasa Flow").
//  Instructor – full name of the assigned instructor, "" when open.
//  StartsAt   – when the class begins.
//  EndsAt     – when the class ends (must be after StartsAt).
//  RoomNumber – studio room identifier.
//  Passcode   – online meeting passcode, if the class is hybrid.
//  ZoomLink   – online meeting URL, if the class is hybrid.
//  Capacity   – maximum participants; 0 means unlimited.
//  Amount     – number of active reservations (server-recomputed).
//  Version    – optimistic-lock counter bumped on every update.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Class struct {
	ID         uint64    // classes.id
	Title      string    // classes.title
	Instructor string    // classes.instructor
	StartsAt   time.Time // classes.starts_at
	EndsAt     time.Time // classes.ends_at
	RoomNumber string    // classes.room_number
	Passcode   string    // classes.passcode
	ZoomLink   string    // classes.zoom_link
	Capacity   uint32    // classes.capacity
	Amount     uint32    // classes.amount
	Version    uint64    // classes.version
	CreatedAt  time.Time // classes.created_at
	UpdatedAt  time.Time // classes.updated_at
}
