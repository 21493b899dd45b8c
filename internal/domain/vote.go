package domain

import "time"

// VoteType is a directional signal on a ticket.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether the vote type is one of the known values.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote is a per-user per-ticket signal. At most one row exists per
// (ticket, user) pair; repeat votes toggle or flip it.
type Vote struct {
	ID        int64
	TicketID  int64
	UserID    int64
	Type      VoteType
	CreatedAt time.Time
}

// VoteAction describes the outcome of a vote mutation.
type VoteAction string

const (
	VoteActionAdded   VoteAction = "added"
	VoteActionChanged VoteAction = "changed"
	VoteActionRemoved VoteAction = "removed"
)
