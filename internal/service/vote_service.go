package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

const voteScoreCacheTTL = 5 * time.Minute

// VoteService maintains the per-user per-ticket vote ledger with toggle
// semantics and keeps a best-effort score cache in Redis.
type VoteService struct {
	store  *repository.Store
	uow    repository.UnitOfWork
	cache  *redis.Client
	logger *zap.Logger
}

// VoteDependencies bundles collaborators. Cache may be nil.
type VoteDependencies struct {
	Store      *repository.Store
	UnitOfWork repository.UnitOfWork
	Cache      *redis.Client
	Logger     *zap.Logger
}

// NewVoteService creates the service.
func NewVoteService(deps VoteDependencies) *VoteService {
	return &VoteService{
		store:  deps.Store,
		uow:    deps.UnitOfWork,
		cache:  deps.Cache,
		logger: deps.Logger,
	}
}

// VoteResult reports the toggle outcome and the score after the mutation.
type VoteResult struct {
	Action domain.VoteAction
	Score  int
}

// Vote applies toggle semantics for one (ticket, user) pair:
// no existing vote creates one, the same direction removes it, the opposite
// direction flips it. The returned score reflects the ledger after the
// mutation.
func (s *VoteService) Vote(ctx context.Context, actor *domain.User, ticketID int64, voteType domain.VoteType) (*VoteResult, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !voteType.Valid() {
		return nil, apperrors.NewInvalidArgument("vote type must be 'up' or 'down'", map[string]any{"vote_type": voteType})
	}

	if _, err := s.store.Tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	var result VoteResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		existing, err := tx.Votes.GetByTicketAndUser(ctx, ticketID, actor.ID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			vote := &domain.Vote{TicketID: ticketID, UserID: actor.ID, Type: voteType}
			if err := tx.Votes.Create(ctx, vote); err != nil {
				return err
			}
			result.Action = domain.VoteActionAdded
		case err != nil:
			return err
		case existing.Type == voteType:
			if err := tx.Votes.Delete(ctx, existing.ID); err != nil {
				return err
			}
			result.Action = domain.VoteActionRemoved
		default:
			if err := tx.Votes.UpdateType(ctx, existing.ID, voteType); err != nil {
				return err
			}
			result.Action = domain.VoteActionChanged
		}

		score, err := tx.Votes.Score(ctx, ticketID)
		if err != nil {
			return err
		}
		result.Score = score
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.cacheScore(ctx, ticketID, result.Score)
	return &result, nil
}

// Score returns the current score for a ticket, serving from the cache when
// possible and falling back to the ledger.
func (s *VoteService) Score(ctx context.Context, ticketID int64) (int, error) {
	if s.cache != nil {
		if score, err := s.cache.Get(ctx, voteScoreKey(ticketID)).Int(); err == nil {
			return score, nil
		}
	}

	score, err := s.store.Votes.Score(ctx, ticketID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.cacheScore(ctx, ticketID, score)
	return score, nil
}

// cacheScore updates the cached score. Failures are logged and ignored; the
// ledger stays authoritative.
func (s *VoteService) cacheScore(ctx context.Context, ticketID int64, score int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, voteScoreKey(ticketID), score, voteScoreCacheTTL).Err(); err != nil {
		s.logger.Warn("vote score cache update failed",
			zap.Int64("ticket_id", ticketID),
			zap.Error(err),
		)
	}
}

func voteScoreKey(ticketID int64) string {
	return fmt.Sprintf("ticket:%d:score", ticketID)
}
