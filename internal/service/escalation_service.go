package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/repository"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

// EscalationService records escalation events and forces the escalated
// ticket to urgent priority.
type EscalationService struct {
	store      *repository.Store
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	Store      *repository.Store
	UnitOfWork repository.UnitOfWork
	Dispatcher events.Dispatcher
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		store:      deps.Store,
		uow:        deps.UnitOfWork,
		dispatcher: deps.Dispatcher,
	}
}

// EscalateResult reports the escalation outcome.
type EscalateResult struct {
	Escalation *domain.Escalation
	Ticket     *domain.Ticket
}

// Escalate records an escalation for the ticket and raises its priority to
// urgent. Agent role required. An escalation row is written on every call;
// the priority change and its activity entry happen only when the ticket is
// not already urgent.
func (s *EscalationService) Escalate(ctx context.Context, actor *domain.User, ticketID int64, reason string) (*EscalateResult, error) {
	if !actor.CanManageTickets() {
		return nil, apperrors.NewPermissionDenied("agent role required")
	}

	ticket, err := s.store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	escalation := &domain.Escalation{
		TicketID:    ticket.ID,
		EscalatedBy: actor.ID,
		Reason:      reason,
	}
	oldPriority := ticket.Priority

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Escalations.Create(ctx, escalation); err != nil {
			return err
		}
		if ticket.Priority == domain.TicketPriorityUrgent {
			return nil
		}

		ticket.Priority = domain.TicketPriorityUrgent
		if err := tx.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		oldVal := string(oldPriority)
		newVal := string(domain.TicketPriorityUrgent)
		return tx.Activities.Create(ctx, &domain.ActivityRecord{
			TicketID:    ticket.ID,
			UserID:      actor.ID,
			Type:        domain.ActivityEscalated,
			Description: fmt.Sprintf("Ticket escalated by %s, priority raised to urgent", actor.Username),
			OldValue:    &oldVal,
			NewValue:    &newVal,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventTicketEscalated,
		TicketID:      ticket.ID,
		TicketSubject: ticket.Subject,
		ActorID:       actor.ID,
		Payload: events.TicketEscalatedPayload{
			Reason:       reason,
			CreatorEmail: s.creatorEmail(ctx, ticket),
		},
	})
	return &EscalateResult{Escalation: escalation, Ticket: ticket}, nil
}

// History lists escalation events for a ticket, oldest first.
func (s *EscalationService) History(ctx context.Context, actor *domain.User, ticketID int64) ([]domain.Escalation, error) {
	ticket, err := s.store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !actor.CanManageTickets() && ticket.CreatorID != actor.ID {
		return nil, apperrors.NewPermissionDenied("not allowed to view this ticket")
	}

	escalations, err := s.store.Escalations.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return escalations, nil
}

func (s *EscalationService) creatorEmail(ctx context.Context, ticket *domain.Ticket) string {
	creator, err := s.store.Users.GetByID(ctx, ticket.CreatorID)
	if err != nil {
		return ""
	}
	return creator.Email
}
