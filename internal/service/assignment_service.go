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

// AssignmentService handles ticket assignment: explicit assignment,
// self-assignment, unassignment and the round-robin batch distribution.
type AssignmentService struct {
	store      *repository.Store
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store      *repository.Store
	UnitOfWork repository.UnitOfWork
	Dispatcher events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		store:      deps.Store,
		uow:        deps.UnitOfWork,
		dispatcher: deps.Dispatcher,
	}
}

// AssignInput describes an assignment request. SelfAssign takes precedence;
// a nil TargetAgentID without SelfAssign unassigns the ticket.
type AssignInput struct {
	TargetAgentID *int64
	SelfAssign    bool
}

// AssignResult reports the outcome of an assignment mutation.
type AssignResult struct {
	Ticket   *domain.Ticket
	Assignee *domain.User
	Message  string
}

// Assign applies the assignment rules:
//   - self-assign requires the agent role and an unassigned ticket;
//   - assigning to someone else requires the admin role;
//   - a nil target unassigns (agent role required).
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.User, ticketID int64, input AssignInput) (*AssignResult, error) {
	if !actor.CanManageTickets() {
		return nil, apperrors.NewPermissionDenied("agent role required")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if input.SelfAssign {
		return s.selfAssign(ctx, actor, ticket)
	}
	if input.TargetAgentID == nil {
		return s.unassign(ctx, actor, ticket)
	}
	return s.assignTo(ctx, actor, ticket, *input.TargetAgentID)
}

func (s *AssignmentService) selfAssign(ctx context.Context, actor *domain.User, ticket *domain.Ticket) (*AssignResult, error) {
	if ticket.AssigneeID != nil {
		return nil, apperrors.NewConflict("ticket is already assigned", map[string]any{"ticket_id": ticket.ID})
	}

	assigneeID := actor.ID
	ticket.AssigneeID = &assigneeID

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		newVal := actor.Username
		return tx.Activities.Create(ctx, &domain.ActivityRecord{
			TicketID:    ticket.ID,
			UserID:      actor.ID,
			Type:        domain.ActivitySelfAssigned,
			Description: fmt.Sprintf("%s accepted this ticket for resolution", actor.Username),
			NewValue:    &newVal,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishAssignment(ctx, events.EventTicketSelfAssigned, actor, ticket, events.TicketAssignedPayload{
		AgentName:    actor.Username,
		AgentEmail:   actor.Email,
		AgentPhone:   actor.Phone,
		AssignerName: actor.Username,
		CreatorEmail: s.creatorEmail(ctx, ticket),
		SelfAssign:   true,
	})
	return &AssignResult{
		Ticket:   ticket,
		Assignee: actor,
		Message:  fmt.Sprintf("You have successfully accepted ticket #%d", ticket.ID),
	}, nil
}

func (s *AssignmentService) assignTo(ctx context.Context, actor *domain.User, ticket *domain.Ticket, targetID int64) (*AssignResult, error) {
	if targetID != actor.ID && !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("only admins can assign tickets to other agents")
	}

	target, err := s.store.Users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidArgument("invalid agent", map[string]any{"agent_id": targetID})
		}
		return nil, apperrors.MapError(err)
	}
	if !target.CanManageTickets() || !target.Active {
		return nil, apperrors.NewInvalidArgument("invalid agent", map[string]any{"agent_id": targetID})
	}

	oldAssignee := s.assigneeName(ctx, ticket)
	ticket.AssigneeID = &target.ID

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		newVal := target.Username
		record := &domain.ActivityRecord{
			TicketID:    ticket.ID,
			UserID:      actor.ID,
			Type:        domain.ActivityAssigned,
			Description: fmt.Sprintf("Ticket assigned to %s", target.Username),
			NewValue:    &newVal,
		}
		if oldAssignee != "" {
			record.OldValue = &oldAssignee
		}
		return tx.Activities.Create(ctx, record)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishAssignment(ctx, events.EventTicketAssigned, actor, ticket, events.TicketAssignedPayload{
		AgentName:     target.Username,
		AgentEmail:    target.Email,
		AgentPhone:    target.Phone,
		AssignerName:  actor.Username,
		CreatorEmail:  s.creatorEmail(ctx, ticket),
		SelfAssign:    false,
		TargetIsActor: target.ID == actor.ID,
	})
	return &AssignResult{
		Ticket:   ticket,
		Assignee: target,
		Message:  fmt.Sprintf("Ticket assigned to %s", target.Username),
	}, nil
}

func (s *AssignmentService) unassign(ctx context.Context, actor *domain.User, ticket *domain.Ticket) (*AssignResult, error) {
	oldAssignee := s.assigneeName(ctx, ticket)
	ticket.AssigneeID = nil

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		record := &domain.ActivityRecord{
			TicketID:    ticket.ID,
			UserID:      actor.ID,
			Type:        domain.ActivityUnassigned,
			Description: fmt.Sprintf("Ticket unassigned from %s", orUnknown(oldAssignee)),
		}
		if oldAssignee != "" {
			record.OldValue = &oldAssignee
		}
		return tx.Activities.Create(ctx, record)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	// Unassignment triggers no notification.
	s.publishAssignmentEvent(ctx, events.Event{
		Type:          events.EventTicketUnassigned,
		TicketID:      ticket.ID,
		TicketSubject: ticket.Subject,
		ActorID:       actor.ID,
		Payload:       events.TicketUnassignedPayload{OldAssigneeName: oldAssignee},
	})
	return &AssignResult{Ticket: ticket, Message: "Ticket unassigned"}, nil
}

// AutoAssignResult reports the batch distribution outcome.
type AutoAssignResult struct {
	AssignedCount int
	Message       string
}

// AutoAssignAll distributes every unassigned open or in-progress ticket
// across the active agent pool round-robin. Admin only. The whole batch
// commits as one transaction; no notifications are sent. The snapshot of
// tickets and agents is taken at call time, so the batch is best-effort with
// respect to concurrent ticket creation or agent deactivation.
func (s *AssignmentService) AutoAssignAll(ctx context.Context, actor *domain.User) (*AutoAssignResult, error) {
	if !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}

	agents, err := s.store.Users.ListActiveAgents(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(agents) == 0 {
		return nil, apperrors.NewConflict("no available agents", nil)
	}

	tickets, err := s.store.Tickets.ListUnassigned(ctx, []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	assigned := 0
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		for i := range tickets {
			ticket := &tickets[i]
			agent := agents[i%len(agents)]
			ticket.AssigneeID = &agent.ID
			if err := tx.Tickets.Update(ctx, ticket); err != nil {
				return err
			}
			newVal := agent.Username
			if err := tx.Activities.Create(ctx, &domain.ActivityRecord{
				TicketID:    ticket.ID,
				UserID:      actor.ID,
				Type:        domain.ActivityAutoAssigned,
				Description: fmt.Sprintf("Auto-assigned to %s", agent.Username),
				NewValue:    &newVal,
			}); err != nil {
				return err
			}
			assigned++
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	for i := range tickets {
		agent := agents[i%len(agents)]
		s.publishAssignmentEvent(ctx, events.Event{
			Type:          events.EventTicketAutoAssigned,
			TicketID:      tickets[i].ID,
			TicketSubject: tickets[i].Subject,
			ActorID:       actor.ID,
			Payload:       events.TicketAutoAssignedPayload{AgentName: agent.Username},
		})
	}
	return &AutoAssignResult{
		AssignedCount: assigned,
		Message:       fmt.Sprintf("Assigned %d tickets", assigned),
	}, nil
}

func (s *AssignmentService) getTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *AssignmentService) creatorEmail(ctx context.Context, ticket *domain.Ticket) string {
	creator, err := s.store.Users.GetByID(ctx, ticket.CreatorID)
	if err != nil {
		return ""
	}
	return creator.Email
}

func (s *AssignmentService) assigneeName(ctx context.Context, ticket *domain.Ticket) string {
	if ticket.AssigneeID == nil {
		return ""
	}
	assignee, err := s.store.Users.GetByID(ctx, *ticket.AssigneeID)
	if err != nil {
		return ""
	}
	return assignee.Username
}

func (s *AssignmentService) publishAssignment(ctx context.Context, eventType events.EventType, actor *domain.User, ticket *domain.Ticket, payload events.TicketAssignedPayload) {
	s.publishAssignmentEvent(ctx, events.Event{
		Type:          eventType,
		TicketID:      ticket.ID,
		TicketSubject: ticket.Subject,
		ActorID:       actor.ID,
		Payload:       payload,
	})
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func orUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
