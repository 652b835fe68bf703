// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// ReservationBookedEvent is published after a booking transaction
// commits. It carries enough context for downstream consumers to
// log, notify or feed analytics without querying the primary
// database: the class, the member who booked, the recomputed roster
// size and the member's ledger after the debit.
type ReservationBookedEvent struct {
	ReservationID     uint64   `json:"reservation_id"`
	UserID            uint64   `json:"user_id"`
	MemberName        string   `json:"member_name"`
	ClassID           uint64   `json:"class_id"`
	ClassTitle        string   `json:"class_title"`
	Instructor        string   `json:"instructor"`
	RoomNumber        string   `json:"room_number"`
	StartsAt          string   `json:"starts_at"`
	EndsAt            string   `json:"ends_at"`
	Amount            uint32   `json:"amount"`
	Capacity          uint32   `json:"capacity"`
	Participants      []string `json:"participants"`
	RemainingSessions uint32   `json:"remaining_sessions"`
	BookedAt          string   `json:"booked_at"`
}
