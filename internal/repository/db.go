package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the querier surface shared by *pgxpool.Pool and pgx.Tx, so the same
// repository code runs against the pool or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles all repositories bound to a single querier.
type Store struct {
	Users       UserRepository
	Categories  CategoryRepository
	Tags        TagRepository
	Tickets     TicketRepository
	Comments    CommentRepository
	Votes       VoteRepository
	Attachments AttachmentRepository
	Activities  ActivityRepository
	Escalations EscalationRepository
}

// NewStore builds a repository bundle over the given querier.
func NewStore(db DB) *Store {
	return &Store{
		Users:       NewUserRepository(db),
		Categories:  NewCategoryRepository(db),
		Tags:        NewTagRepository(db),
		Tickets:     NewTicketRepository(db),
		Comments:    NewCommentRepository(db),
		Votes:       NewVoteRepository(db),
		Attachments: NewAttachmentRepository(db),
		Activities:  NewActivityRepository(db),
		Escalations: NewEscalationRepository(db),
	}
}

// UnitOfWork runs a function against a transactional repository set. The
// callback's writes commit together or not at all.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s *Store) error) error
}

type pgxUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork builds a pgx-backed unit of work.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgxUnitOfWork{pool: pool}
}

func (u *pgxUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, s *Store) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, NewStore(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
