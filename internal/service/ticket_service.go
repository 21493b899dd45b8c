package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/repository"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

// TicketService owns the ticket workflow: creation, edits, status moves,
// comments and deletion. Every successful mutation commits its activity
// record in the same transaction; notifications are dispatched afterwards and
// never affect the outcome.
type TicketService struct {
	store      *repository.Store
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      *repository.Store
	UnitOfWork repository.UnitOfWork
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		uow:        deps.UnitOfWork,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	CategoryID  int64
	Priority    domain.TicketPriority
	Tags        []string
	Attachments []AttachmentInput
}

// AttachmentInput defines attachment metadata captured at creation time.
type AttachmentInput struct {
	OriginalFilename string
	SizeBytes        int64
	MimeType         string
}

// TicketEditInput carries the admin edit payload. Nil fields are left
// untouched; a non-nil Tags replaces the whole tag set.
type TicketEditInput struct {
	Subject     *string
	Description *string
	CategoryID  *int64
	Priority    *domain.TicketPriority
	Tags        *[]string
}

// TicketDetail aggregates a ticket with its child collections for display.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Comments    []domain.Comment
	Attachments []domain.Attachment
	Activities  []domain.ActivityRecord
	Score       int
	UserVote    *domain.VoteType
}

// Create opens a new ticket for the actor. Tags are resolved or created by
// exact name; the created activity record and the ticket commit together.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewInvalidArgument("subject and description are required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewInvalidArgument("invalid priority", map[string]any{"priority": priority})
	}

	category, err := s.store.Categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.Active {
		return nil, apperrors.NewConflict("category is not active", map[string]any{"category_id": category.ID})
	}

	ticket := &domain.Ticket{
		Subject:     subject,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CreatorID:   actor.ID,
		CategoryID:  category.ID,
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		tags, err := resolveTags(ctx, tx, ticket.ID, input.Tags)
		if err != nil {
			return err
		}
		ticket.Tags = tags
		for _, att := range input.Attachments {
			record := &domain.Attachment{
				TicketID:         ticket.ID,
				UserID:           actor.ID,
				StorageKey:       uuid.NewString(),
				OriginalFilename: att.OriginalFilename,
				SizeBytes:        att.SizeBytes,
				MimeType:         att.MimeType,
			}
			if err := tx.Attachments.Create(ctx, record); err != nil {
				return err
			}
		}
		return tx.Activities.Create(ctx, &domain.ActivityRecord{
			TicketID:    ticket.ID,
			UserID:      actor.ID,
			Type:        domain.ActivityCreated,
			Description: fmt.Sprintf("Ticket created by %s", actor.Username),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventTicketCreated,
		TicketID:      ticket.ID,
		TicketSubject: ticket.Subject,
		ActorID:       actor.ID,
		Payload: events.TicketCreatedPayload{
			CreatorName:  actor.Username,
			CreatorEmail: actor.Email,
			CategoryName: category.Name,
			Priority:     ticket.Priority,
			Description:  ticket.Description,
		},
	})
	return ticket, nil
}

// UpdateStatus moves the ticket to a new lifecycle status. Agents must be
// the current assignee unless they are admins.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID int64, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewInvalidArgument("invalid status", map[string]any{"status": newStatus})
	}
	if !actor.CanManageTickets() {
		return nil, apperrors.NewPermissionDenied("agent role required")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAdministrate() {
		if ticket.AssigneeID == nil || *ticket.AssigneeID != actor.ID {
			return nil, apperrors.NewPermissionDenied("must be assigned first")
		}
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		oldVal := string(oldStatus)
		newVal := string(newStatus)
		return tx.Activities.Create(ctx, &domain.ActivityRecord{
			TicketID:    ticket.ID,
			UserID:      actor.ID,
			Type:        domain.ActivityStatusChanged,
			Description: fmt.Sprintf("Status changed from %s to %s by %s", oldStatus, newStatus, actor.Username),
			OldValue:    &oldVal,
			NewValue:    &newVal,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	creator, creatorErr := s.store.Users.GetByID(ctx, ticket.CreatorID)
	creatorEmail := ""
	if creatorErr == nil {
		creatorEmail = creator.Email
	}
	s.publishEvent(ctx, events.Event{
		Type:          events.EventTicketStatusChanged,
		TicketID:      ticket.ID,
		TicketSubject: ticket.Subject,
		ActorID:       actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:    oldStatus,
			NewStatus:    newStatus,
			CreatorEmail: creatorEmail,
		},
	})
	return ticket, nil
}

// Edit replaces the provided ticket fields. Admin only. A single edited
// activity record is written when at least one field actually changed; no-op
// edits produce none.
func (s *TicketService) Edit(ctx context.Context, actor *domain.User, ticketID int64, input TicketEditInput) (*domain.Ticket, error) {
	if !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldCategory, err := s.store.Categories.GetByID(ctx, ticket.CategoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var changes []string

	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return nil, apperrors.NewInvalidArgument("subject cannot be empty", nil)
		}
		if subject != ticket.Subject {
			changes = append(changes, fmt.Sprintf("Subject: %q -> %q", ticket.Subject, subject))
			ticket.Subject = subject
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewInvalidArgument("description cannot be empty", nil)
		}
		if description != ticket.Description {
			changes = append(changes, "Description updated")
			ticket.Description = description
		}
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewInvalidArgument("invalid priority", map[string]any{"priority": *input.Priority})
		}
		if *input.Priority != ticket.Priority {
			changes = append(changes, fmt.Sprintf("Priority: %s -> %s", ticket.Priority, *input.Priority))
			ticket.Priority = *input.Priority
		}
	}
	if input.CategoryID != nil && *input.CategoryID != ticket.CategoryID {
		newCategory, err := s.store.Categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("category", map[string]any{"category_id": *input.CategoryID})
			}
			return nil, apperrors.MapError(err)
		}
		if !newCategory.Active {
			return nil, apperrors.NewConflict("category is not active", map[string]any{"category_id": newCategory.ID})
		}
		changes = append(changes, fmt.Sprintf("Category: %s -> %s", oldCategory.Name, newCategory.Name))
		ticket.CategoryID = newCategory.ID
	}

	summary := strings.Join(changes, "; ")

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		if input.Tags != nil {
			if err := tx.Tags.ClearTicketTags(ctx, ticket.ID); err != nil {
				return err
			}
			tags, err := resolveTags(ctx, tx, ticket.ID, *input.Tags)
			if err != nil {
				return err
			}
			ticket.Tags = tags
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Activities.Create(ctx, &domain.ActivityRecord{
			TicketID:    ticket.ID,
			UserID:      actor.ID,
			Type:        domain.ActivityEdited,
			Description: fmt.Sprintf("Ticket edited by %s: %s", actor.Username, summary),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if len(changes) > 0 {
		s.publishEvent(ctx, events.Event{
			Type:          events.EventTicketEdited,
			TicketID:      ticket.ID,
			TicketSubject: ticket.Subject,
			ActorID:       actor.ID,
			Payload:       events.TicketEditedPayload{ChangeSummary: summary},
		})
	}
	return ticket, nil
}

// Delete removes a ticket and all of its child records in one transaction.
// Admin only. A partial failure rolls back the whole cascade.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, ticketID int64) error {
	if !actor.CanAdministrate() {
		return apperrors.NewPermissionDenied("admin role required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Comments.DeleteByTicket(ctx, ticket.ID); err != nil {
			return err
		}
		if err := tx.Votes.DeleteByTicket(ctx, ticket.ID); err != nil {
			return err
		}
		if err := tx.Attachments.DeleteByTicket(ctx, ticket.ID); err != nil {
			return err
		}
		if err := tx.Escalations.DeleteByTicket(ctx, ticket.ID); err != nil {
			return err
		}
		if err := tx.Activities.DeleteByTicket(ctx, ticket.ID); err != nil {
			return err
		}
		if err := tx.Tags.ClearTicketTags(ctx, ticket.ID); err != nil {
			return err
		}
		return tx.Tickets.Delete(ctx, ticket.ID)
	})
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventTicketDeleted,
		TicketID:      ticket.ID,
		TicketSubject: ticket.Subject,
		ActorID:       actor.ID,
	})
	return nil
}

// AddComment appends a comment. Internal notes are restricted to agents;
// end-users may only comment on their own tickets. The creator is notified
// when someone else comments publicly.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID int64, content string, internal bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewInvalidArgument("content is required", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageTickets() && ticket.CreatorID != actor.ID {
		return nil, apperrors.NewPermissionDenied("no access to this ticket")
	}
	if internal && !actor.CanManageTickets() {
		internal = false
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		UserID:   actor.ID,
		Content:  content,
		Internal: internal,
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		// Touch updated_at so the ticket surfaces in recent listings.
		return tx.Tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if actor.ID != ticket.CreatorID && !internal {
		creator, creatorErr := s.store.Users.GetByID(ctx, ticket.CreatorID)
		creatorEmail := ""
		if creatorErr == nil {
			creatorEmail = creator.Email
		}
		s.publishEvent(ctx, events.Event{
			Type:          events.EventTicketCommented,
			TicketID:      ticket.ID,
			TicketSubject: ticket.Subject,
			ActorID:       actor.ID,
			Payload: events.TicketCommentedPayload{
				CommenterName: actor.Username,
				CreatorEmail:  creatorEmail,
				Internal:      internal,
			},
		})
	}
	return comment, nil
}

// Get returns a ticket with its comments, audit trail and vote score.
// End-users may only view their own tickets and never see internal comments.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID int64) (*TicketDetail, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageTickets() && ticket.CreatorID != actor.ID {
		return nil, apperrors.NewPermissionDenied("no access to this ticket")
	}

	tags, err := s.store.Tags.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Tags = tags

	comments, err := s.store.Comments.ListByTicket(ctx, ticket.ID, actor.CanManageTickets())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.store.Attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	activities, err := s.store.Activities.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	score, err := s.store.Votes.Score(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	detail := &TicketDetail{
		Ticket:      ticket,
		Comments:    comments,
		Attachments: attachments,
		Activities:  activities,
		Score:       score,
	}
	if vote, err := s.store.Votes.GetByTicketAndUser(ctx, ticket.ID, actor.ID); err == nil {
		detail.UserVote = &vote.Type
	}
	return detail, nil
}

// List returns tickets visible to the actor. End-users see only their own
// tickets regardless of the requested filter.
func (s *TicketService) List(ctx context.Context, actor *domain.User, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if !actor.CanManageTickets() {
		filter.CreatorID = &actor.ID
	}
	tickets, err := s.store.Tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListActivity returns the audit trail oldest first.
func (s *TicketService) ListActivity(ctx context.Context, actor *domain.User, ticketID int64) ([]domain.ActivityRecord, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageTickets() && ticket.CreatorID != actor.ID {
		return nil, apperrors.NewPermissionDenied("no access to this ticket")
	}
	records, err := s.store.Activities.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func resolveTags(ctx context.Context, tx *repository.Store, ticketID int64, names []string) ([]domain.Tag, error) {
	var tags []domain.Tag
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tag, err := tx.Tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := tx.Tags.AttachToTicket(ctx, ticketID, tag.ID); err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
