package domain

import "time"

// Escalation records a manual priority-boost event with its reason.
// ResolvedAt is set outside the workflow core.
type Escalation struct {
	ID          int64
	TicketID    int64
	EscalatedBy int64
	Reason      string
	EscalatedAt time.Time
	ResolvedAt  *time.Time
}
