package events

import (
	"time"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketSelfAssigned  EventType = "ticket_self_assigned"
	EventTicketUnassigned    EventType = "ticket_unassigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommented     EventType = "ticket_commented"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketAutoAssigned  EventType = "ticket_auto_assigned"
	EventTicketEdited        EventType = "ticket_edited"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services after the primary
// mutation has committed.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	TicketID      int64       `json:"ticket_id"`
	TicketSubject string      `json:"ticket_subject"`
	ActorID       int64       `json:"actor_id"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CreatorName  string                `json:"creator_name"`
	CreatorEmail string                `json:"creator_email"`
	CategoryName string                `json:"category_name"`
	Priority     domain.TicketPriority `json:"priority"`
	Description  string                `json:"description"`
}

// TicketAssignedPayload payload. SelfAssign distinguishes an agent claiming
// the ticket from an explicit assignment; TargetIsActor marks an explicit
// assignment whose target is the assigner themselves.
type TicketAssignedPayload struct {
	AgentName     string `json:"agent_name"`
	AgentEmail    string `json:"agent_email"`
	AgentPhone    string `json:"agent_phone,omitempty"`
	AssignerName  string `json:"assigner_name"`
	CreatorEmail  string `json:"creator_email"`
	SelfAssign    bool   `json:"self_assign"`
	TargetIsActor bool   `json:"target_is_actor"`
}

// TicketUnassignedPayload payload.
type TicketUnassignedPayload struct {
	OldAssigneeName string `json:"old_assignee_name,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	CreatorEmail string              `json:"creator_email"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	CommenterName string `json:"commenter_name"`
	CreatorEmail  string `json:"creator_email"`
	Internal      bool   `json:"internal"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Reason       string `json:"reason"`
	CreatorEmail string `json:"creator_email"`
}

// TicketAutoAssignedPayload payload.
type TicketAutoAssignedPayload struct {
	AgentName string `json:"agent_name"`
}

// TicketEditedPayload payload.
type TicketEditedPayload struct {
	ChangeSummary string `json:"change_summary"`
}
