package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/config"
	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/notify"
	"github.com/quickdesk/quickdesk/internal/observability"
)

// NotificationService turns domain events into outbound email. Delivery is
// best effort: a failed or skipped notification is logged and reported as
// unsent, and never surfaces to the caller that triggered the event.
type NotificationService struct {
	mailer  notify.Mailer
	cfg     config.NotifyConfig
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NotificationDependencies bundles collaborators. Metrics may be nil.
type NotificationDependencies struct {
	Mailer  notify.Mailer
	Config  config.NotifyConfig
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		mailer:  deps.Mailer,
		cfg:     deps.Config,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
}

// Register subscribes the service to the events that produce notifications.
// Unassignment and batch auto-assignment are deliberately silent.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.handleCreated)
	dispatcher.Subscribe(events.EventTicketAssigned, s.handleAssigned)
	dispatcher.Subscribe(events.EventTicketSelfAssigned, s.handleSelfAssigned)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.handleStatusChanged)
	dispatcher.Subscribe(events.EventTicketCommented, s.handleCommented)
	dispatcher.Subscribe(events.EventTicketEscalated, s.handleEscalated)
}

// Notify renders and sends one message. It reports whether the message was
// handed to the transport; failures are logged, never propagated.
func (s *NotificationService) Notify(event notify.MessageEvent, recipient string, ticketID int64, ticketSubject string, context map[string]string) bool {
	if recipient == "" {
		s.logger.Debug("notification skipped, no recipient",
			zap.String("event", string(event)),
			zap.Int64("ticket_id", ticketID),
		)
		s.metrics.RecordNotification(false)
		return false
	}

	subject, body := notify.Render(event, ticketID, ticketSubject, s.cfg.BaseURL, context)
	if err := s.mailer.Send(recipient, subject, body); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("event", string(event)),
			zap.Int64("ticket_id", ticketID),
			zap.String("recipient", recipient),
			zap.Error(err),
		)
		s.metrics.RecordNotification(false)
		return false
	}

	s.logger.Info("notification sent",
		zap.String("event", string(event)),
		zap.Int64("ticket_id", ticketID),
		zap.String("recipient", recipient),
	)
	s.metrics.RecordNotification(true)
	return true
}

func (s *NotificationService) handleCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	s.Notify(notify.MessageCreated, payload.CreatorEmail, event.TicketID, event.TicketSubject, map[string]string{
		"category":     payload.CategoryName,
		"priority":     string(payload.Priority),
		"creator_name": payload.CreatorName,
		"description":  payload.Description,
	})
	return nil
}

func (s *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	s.Notify(notify.MessageAssigned, payload.CreatorEmail, event.TicketID, event.TicketSubject, map[string]string{
		"agent_name": payload.AgentName,
	})
	// Agents picking up a ticket themselves do not need to hear about it.
	if !payload.SelfAssign && !payload.TargetIsActor {
		s.Notify(notify.MessageAssignedToYou, payload.AgentEmail, event.TicketID, event.TicketSubject, map[string]string{
			"assigner_name": payload.AssignerName,
		})
	}
	return nil
}

func (s *NotificationService) handleSelfAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	s.Notify(notify.MessageAgentAccepted, payload.CreatorEmail, event.TicketID, event.TicketSubject, map[string]string{
		"agent_name":  payload.AgentName,
		"agent_email": payload.AgentEmail,
		"agent_phone": payload.AgentPhone,
	})
	return nil
}

func (s *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	s.Notify(notify.MessageStatusChanged, payload.CreatorEmail, event.TicketID, event.TicketSubject, map[string]string{
		"old_status": string(payload.OldStatus),
		"new_status": string(payload.NewStatus),
	})
	return nil
}

func (s *NotificationService) handleCommented(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentedPayload)
	if !ok {
		return nil
	}
	if payload.Internal {
		return nil
	}
	s.Notify(notify.MessageCommented, payload.CreatorEmail, event.TicketID, event.TicketSubject, map[string]string{
		"commenter_name": payload.CommenterName,
	})
	return nil
}

func (s *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return nil
	}
	s.Notify(notify.MessageEscalated, payload.CreatorEmail, event.TicketID, event.TicketSubject, map[string]string{
		"reason": payload.Reason,
	})
	return nil
}
