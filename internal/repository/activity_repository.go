package repository

import (
	"context"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// ActivityRepository stores the append-only audit trail. There is no update
// operation; rows are only removed by cascading ticket deletion.
type ActivityRepository interface {
	Create(ctx context.Context, record *domain.ActivityRecord) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.ActivityRecord, error)
	DeleteByTicket(ctx context.Context, ticketID int64) error
}

type activityRepository struct {
	db DB
}

// NewActivityRepository builds the repository.
func NewActivityRepository(db DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, record *domain.ActivityRecord) error {
	const query = `
        INSERT INTO ticket_activities (ticket_id, user_id, activity_type, description, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		record.TicketID,
		record.UserID,
		record.Type,
		record.Description,
		record.OldValue,
		record.NewValue,
	).Scan(&record.ID, &record.CreatedAt)
}

// ListByTicket returns activities oldest first for audit display.
func (r *activityRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.ActivityRecord, error) {
	const query = `
        SELECT id, ticket_id, user_id, activity_type, description, old_value, new_value, created_at
        FROM ticket_activities WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityRecord
	for rows.Next() {
		var record domain.ActivityRecord
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.UserID,
			&record.Type,
			&record.Description,
			&record.OldValue,
			&record.NewValue,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *activityRepository) DeleteByTicket(ctx context.Context, ticketID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ticket_activities WHERE ticket_id=$1`, ticketID)
	return err
}
