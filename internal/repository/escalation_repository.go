package repository

import (
	"context"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// EscalationRepository stores escalation events.
type EscalationRepository interface {
	Create(ctx context.Context, escalation *domain.Escalation) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Escalation, error)
	DeleteByTicket(ctx context.Context, ticketID int64) error
}

type escalationRepository struct {
	db DB
}

// NewEscalationRepository builds the repository.
func NewEscalationRepository(db DB) EscalationRepository {
	return &escalationRepository{db: db}
}

func (r *escalationRepository) Create(ctx context.Context, escalation *domain.Escalation) error {
	const query = `
        INSERT INTO ticket_escalations (ticket_id, escalated_by, reason)
        VALUES ($1,$2,$3)
        RETURNING id, escalated_at`
	return r.db.QueryRow(ctx, query,
		escalation.TicketID,
		escalation.EscalatedBy,
		escalation.Reason,
	).Scan(&escalation.ID, &escalation.EscalatedAt)
}

func (r *escalationRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Escalation, error) {
	const query = `
        SELECT id, ticket_id, escalated_by, reason, escalated_at, resolved_at
        FROM ticket_escalations WHERE ticket_id=$1 ORDER BY escalated_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var escalation domain.Escalation
		if err := rows.Scan(
			&escalation.ID,
			&escalation.TicketID,
			&escalation.EscalatedBy,
			&escalation.Reason,
			&escalation.EscalatedAt,
			&escalation.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, escalation)
	}
	return result, rows.Err()
}

func (r *escalationRepository) DeleteByTicket(ctx context.Context, ticketID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ticket_escalations WHERE ticket_id=$1`, ticketID)
	return err
}
