package dto

import (
	"time"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string              `json:"subject" validate:"required,max=200"`
	Description string              `json:"description" validate:"required"`
	CategoryID  int64               `json:"category_id" validate:"required,gt=0"`
	Priority    string              `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags        []string            `json:"tags"`
	Attachments []AttachmentRequest `json:"attachments" validate:"dive"`
}

// AttachmentRequest describes attachment metadata captured at creation.
type AttachmentRequest struct {
	OriginalFilename string `json:"original_filename" validate:"required"`
	SizeBytes        int64  `json:"size_bytes" validate:"gte=0"`
	MimeType         string `json:"mime_type"`
}

// EditTicketRequest carries the admin edit payload; absent fields stay
// unchanged.
type EditTicketRequest struct {
	Subject     *string   `json:"subject"`
	Description *string   `json:"description"`
	CategoryID  *int64    `json:"category_id"`
	Priority    *string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags        *[]string `json:"tags"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// AssignRequest payload. SelfAssign wins over AgentID; a null AgentID
// without SelfAssign unassigns the ticket.
type AssignRequest struct {
	AgentID    *int64 `json:"agent_id"`
	SelfAssign bool   `json:"self_assign"`
}

// VoteRequest payload.
type VoteRequest struct {
	Type string `json:"type" validate:"required,oneof=up down"`
}

// CommentRequest payload.
type CommentRequest struct {
	Content  string `json:"content" validate:"required"`
	Internal bool   `json:"internal"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         int64                 `json:"id"`
	Subject    string                `json:"subject"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	CreatorID  int64                 `json:"creator_id"`
	CategoryID int64                 `json:"category_id"`
	AssigneeID *int64                `json:"assignee_id"`
	Tags       []string              `json:"tags"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string               `json:"description"`
	Score       int                  `json:"score"`
	UserVote    *domain.VoteType     `json:"user_vote"`
	Comments    []CommentResponse    `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
	Activities  []ActivityResponse   `json:"activities"`
}

// AttachmentResponse is the metadata of one uploaded file.
type AttachmentResponse struct {
	ID               int64     `json:"id"`
	StorageKey       string    `json:"storage_key"`
	OriginalFilename string    `json:"original_filename"`
	SizeBytes        int64     `json:"size_bytes"`
	MimeType         string    `json:"mime_type"`
	CreatedAt        time.Time `json:"created_at"`
}

// CommentResponse represents one ticket comment.
type CommentResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityResponse is one audit-trail entry.
type ActivityResponse struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"user_id"`
	Type        domain.ActivityType `json:"type"`
	Description string              `json:"description"`
	OldValue    *string             `json:"old_value,omitempty"`
	NewValue    *string             `json:"new_value,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// EscalationResponse represents one escalation event.
type EscalationResponse struct {
	ID          int64      `json:"id"`
	TicketID    int64      `json:"ticket_id"`
	EscalatedBy int64      `json:"escalated_by"`
	Reason      string     `json:"reason"`
	EscalatedAt time.Time  `json:"escalated_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// VoteResponse reports the toggle outcome.
type VoteResponse struct {
	Action domain.VoteAction `json:"action"`
	Score  int               `json:"score"`
}

// AssignResponse reports the assignment outcome.
type AssignResponse struct {
	Message string        `json:"message"`
	Ticket  TicketSummary `json:"ticket"`
}

// AutoAssignResponse reports the batch distribution outcome.
type AutoAssignResponse struct {
	Message       string `json:"message"`
	AssignedCount int    `json:"assigned_count"`
}
