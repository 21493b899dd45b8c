package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// VoteRepository handles the per-user per-ticket vote ledger.
type VoteRepository interface {
	GetByTicketAndUser(ctx context.Context, ticketID, userID int64) (*domain.Vote, error)
	Create(ctx context.Context, vote *domain.Vote) error
	UpdateType(ctx context.Context, id int64, voteType domain.VoteType) error
	Delete(ctx context.Context, id int64) error
	DeleteByTicket(ctx context.Context, ticketID int64) error
	Score(ctx context.Context, ticketID int64) (int, error)
}

type voteRepository struct {
	db DB
}

// NewVoteRepository instantiates the repository.
func NewVoteRepository(db DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) GetByTicketAndUser(ctx context.Context, ticketID, userID int64) (*domain.Vote, error) {
	const query = `
        SELECT id, ticket_id, user_id, vote_type, created_at
        FROM votes WHERE ticket_id=$1 AND user_id=$2`
	var vote domain.Vote
	if err := r.db.QueryRow(ctx, query, ticketID, userID).Scan(
		&vote.ID,
		&vote.TicketID,
		&vote.UserID,
		&vote.Type,
		&vote.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	const query = `
        INSERT INTO votes (ticket_id, user_id, vote_type)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		vote.TicketID,
		vote.UserID,
		vote.Type,
	).Scan(&vote.ID, &vote.CreatedAt)
}

func (r *voteRepository) UpdateType(ctx context.Context, id int64, voteType domain.VoteType) error {
	cmd, err := r.db.Exec(ctx, `UPDATE votes SET vote_type=$1 WHERE id=$2`, voteType, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM votes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *voteRepository) DeleteByTicket(ctx context.Context, ticketID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM votes WHERE ticket_id=$1`, ticketID)
	return err
}

// Score returns count(up) - count(down) for the ticket.
func (r *voteRepository) Score(ctx context.Context, ticketID int64) (int, error) {
	const query = `
        SELECT COALESCE(SUM(CASE WHEN vote_type='up' THEN 1 ELSE -1 END), 0)
        FROM votes WHERE ticket_id=$1`
	var score int
	if err := r.db.QueryRow(ctx, query, ticketID).Scan(&score); err != nil {
		return 0, err
	}
	return score, nil
}
