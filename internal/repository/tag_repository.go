package repository

import (
	"context"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// TagRepository handles tags and their ticket associations.
type TagRepository interface {
	// GetOrCreate resolves a tag by exact name, creating it when absent.
	// Concurrent creations of the same name converge on the existing row via
	// the unique constraint.
	GetOrCreate(ctx context.Context, name string) (*domain.Tag, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Tag, error)
	AttachToTicket(ctx context.Context, ticketID, tagID int64) error
	ClearTicketTags(ctx context.Context, ticketID int64) error
}

type tagRepository struct {
	db DB
}

// NewTagRepository instantiates the repository.
func NewTagRepository(db DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row when the
	// insert loses a get-or-create race.
	const query = `
        INSERT INTO tags (name)
        VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name=EXCLUDED.name
        RETURNING id, name, color, created_at`
	var tag domain.Tag
	if err := r.db.QueryRow(ctx, query, name).Scan(
		&tag.ID,
		&tag.Name,
		&tag.Color,
		&tag.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Tag, error) {
	const query = `
        SELECT t.id, t.name, t.color, t.created_at
        FROM tags t
        JOIN ticket_tags tt ON tt.tag_id = t.id
        WHERE tt.ticket_id=$1
        ORDER BY t.name ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, tag)
	}
	return result, rows.Err()
}

func (r *tagRepository) AttachToTicket(ctx context.Context, ticketID, tagID int64) error {
	const query = `
        INSERT INTO ticket_tags (ticket_id, tag_id)
        VALUES ($1,$2)
        ON CONFLICT (ticket_id, tag_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, ticketID, tagID)
	return err
}

func (r *tagRepository) ClearTicketTags(ctx context.Context, ticketID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ticket_tags WHERE ticket_id=$1`, ticketID)
	return err
}
