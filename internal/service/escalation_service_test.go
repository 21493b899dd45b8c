package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/quickdesk/internal/domain"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

func newEscalationService(env *testEnv) *EscalationService {
	return NewEscalationService(EscalationDependencies{Store: env.store, UnitOfWork: env.uow})
}

func TestEscalateForcesUrgentPriority(t *testing.T) {
	env := newTestEnv()
	svc := newEscalationService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	result, err := svc.Escalate(context.Background(), agent, ticket.ID, "customer is blocked")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityUrgent, result.Ticket.Priority)
	assert.Equal(t, "customer is blocked", result.Escalation.Reason)

	records := env.activitiesFor(t, ticket.ID)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ActivityEscalated, records[0].Type)
	require.NotNil(t, records[0].OldValue)
	assert.Equal(t, "medium", *records[0].OldValue)
	assert.Equal(t, "urgent", *records[0].NewValue)
}

func TestEscalateAlreadyUrgentRecordsEventOnly(t *testing.T) {
	env := newTestEnv()
	svc := newEscalationService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	ctx := context.Background()
	_, err := svc.Escalate(ctx, agent, ticket.ID, "first push")
	require.NoError(t, err)
	_, err = svc.Escalate(ctx, agent, ticket.ID, "second push")
	require.NoError(t, err)

	escalations, err := env.store.Escalations.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, escalations, 2, "every escalation is recorded")
	assert.Len(t, env.activitiesFor(t, ticket.ID), 1, "no activity when priority is already urgent")
}

func TestEscalateRequiresAgent(t *testing.T) {
	env := newTestEnv()
	svc := newEscalationService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)

	_, err := svc.Escalate(context.Background(), user, 1, "please")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}

func TestEscalationHistoryVisibleToCreator(t *testing.T) {
	env := newTestEnv()
	svc := newEscalationService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	other := env.seedUser(t, "carol", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	ctx := context.Background()
	_, err := svc.Escalate(ctx, agent, ticket.ID, "stuck")
	require.NoError(t, err)

	history, err := svc.History(ctx, user, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = svc.History(ctx, other, ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}
