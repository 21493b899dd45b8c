package domain

import "time"

// ActivityType captures what happened in an audit-trail entry.
type ActivityType string

const (
	ActivityCreated       ActivityType = "created"
	ActivityAssigned      ActivityType = "assigned"
	ActivityUnassigned    ActivityType = "unassigned"
	ActivitySelfAssigned  ActivityType = "self_assigned"
	ActivityStatusChanged ActivityType = "status_changed"
	ActivityEscalated     ActivityType = "escalated"
	ActivityEdited        ActivityType = "edited"
	ActivityAutoAssigned  ActivityType = "auto_assigned"
)

// ActivityRecord is an immutable append-only audit entry for a ticket state
// change. Records are only ever written on a successful transition and only
// removed by cascading ticket deletion.
type ActivityRecord struct {
	ID          int64
	TicketID    int64
	UserID      int64
	Type        ActivityType
	Description string
	OldValue    *string
	NewValue    *string
	CreatedAt   time.Time
}
