package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

func newVoteService(env *testEnv) *VoteService {
	return NewVoteService(VoteDependencies{
		Store:      env.store,
		UnitOfWork: env.uow,
		Logger:     zap.NewNop(),
	})
}

func TestVoteToggleLifecycle(t *testing.T) {
	env := newTestEnv()
	svc := newVoteService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)
	ctx := context.Background()

	result, err := svc.Vote(ctx, user, ticket.ID, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteActionAdded, result.Action)
	assert.Equal(t, 1, result.Score)

	result, err = svc.Vote(ctx, user, ticket.ID, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteActionChanged, result.Action)
	assert.Equal(t, -1, result.Score)

	result, err = svc.Vote(ctx, user, ticket.ID, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteActionRemoved, result.Action)
	assert.Equal(t, 0, result.Score)
}

func TestVoteRequiresAuthenticatedActor(t *testing.T) {
	env := newTestEnv()
	svc := newVoteService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	_, err := svc.Vote(context.Background(), nil, ticket.ID, domain.VoteUp)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestVoteScoreAggregatesAcrossUsers(t *testing.T) {
	env := newTestEnv()
	svc := newVoteService(env)
	alice := env.seedUser(t, "alice", domain.RoleUser)
	carol := env.seedUser(t, "carol", domain.RoleUser)
	dave := env.seedUser(t, "dave", domain.RoleUser)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, alice, category)
	ctx := context.Background()

	_, err := svc.Vote(ctx, alice, ticket.ID, domain.VoteUp)
	require.NoError(t, err)
	_, err = svc.Vote(ctx, carol, ticket.ID, domain.VoteUp)
	require.NoError(t, err)
	result, err := svc.Vote(ctx, dave, ticket.ID, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)

	score, err := svc.Score(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, score)
}

func TestVoteRejectsUnknownType(t *testing.T) {
	env := newTestEnv()
	svc := newVoteService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)

	_, err := svc.Vote(context.Background(), user, 1, domain.VoteType("sideways"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
}

func TestVoteMissingTicket(t *testing.T) {
	env := newTestEnv()
	svc := newVoteService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)

	_, err := svc.Vote(context.Background(), user, 999, domain.VoteUp)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
