package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/quickdesk/internal/domain"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

func newAssignmentService(env *testEnv) *AssignmentService {
	return NewAssignmentService(AssignmentDependencies{Store: env.store, UnitOfWork: env.uow})
}

func TestSelfAssignClaimsUnassignedTicket(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	result, err := svc.Assign(context.Background(), agent, ticket.ID, AssignInput{SelfAssign: true})
	require.NoError(t, err)
	require.NotNil(t, result.Ticket.AssigneeID)
	assert.Equal(t, agent.ID, *result.Ticket.AssigneeID)

	records := env.activitiesFor(t, ticket.ID)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ActivitySelfAssigned, records[0].Type)
	assert.Contains(t, records[0].Description, "accepted this ticket")
}

func TestSelfAssignConflictsWhenAlreadyAssigned(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	first := env.seedUser(t, "bob", domain.RoleAgent)
	second := env.seedUser(t, "carol", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	ctx := context.Background()
	_, err := svc.Assign(ctx, first, ticket.ID, AssignInput{SelfAssign: true})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, second, ticket.ID, AssignInput{SelfAssign: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	stored, err := env.store.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *stored.AssigneeID, "loser does not steal the ticket")
	assert.Len(t, env.activitiesFor(t, ticket.ID), 1, "no activity for the rejected claim")
}

func TestAssignRequiresAgentRole(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)

	_, err := svc.Assign(context.Background(), user, 1, AssignInput{SelfAssign: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}

func TestAssignToOtherRequiresAdmin(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	other := env.seedUser(t, "carol", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	_, err := svc.Assign(context.Background(), agent, ticket.ID, AssignInput{TargetAgentID: &other.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}

func TestAdminAssignsToAgentWithAudit(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	result, err := svc.Assign(context.Background(), admin, ticket.ID, AssignInput{TargetAgentID: &agent.ID})
	require.NoError(t, err)
	assert.Equal(t, agent.ID, *result.Ticket.AssigneeID)

	records := env.activitiesFor(t, ticket.ID)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ActivityAssigned, records[0].Type)
	require.NotNil(t, records[0].NewValue)
	assert.Equal(t, "bob", *records[0].NewValue)
	assert.Nil(t, records[0].OldValue)
}

func TestAssignRejectsNonAgentTarget(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	_, err := svc.Assign(context.Background(), admin, ticket.ID, AssignInput{TargetAgentID: &user.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
}

func TestUnassignClearsAssignee(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	ctx := context.Background()
	_, err := svc.Assign(ctx, agent, ticket.ID, AssignInput{SelfAssign: true})
	require.NoError(t, err)

	result, err := svc.Assign(ctx, agent, ticket.ID, AssignInput{})
	require.NoError(t, err)
	assert.Nil(t, result.Ticket.AssigneeID)

	records := env.activitiesFor(t, ticket.ID)
	require.Len(t, records, 2)
	assert.Equal(t, domain.ActivityUnassigned, records[1].Type)
	require.NotNil(t, records[1].OldValue)
	assert.Equal(t, "bob", *records[1].OldValue)
}

func TestAutoAssignRoundRobin(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agentA := env.seedUser(t, "bob", domain.RoleAgent)
	agentB := env.seedUser(t, "carol", domain.RoleAgent)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)

	t1 := env.seedTicket(t, user, category)
	t2 := env.seedTicket(t, user, category)
	t3 := env.seedTicket(t, user, category)

	ctx := context.Background()
	result, err := svc.AutoAssignAll(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, result.AssignedCount)

	first, _ := env.store.Tickets.GetByID(ctx, t1.ID)
	second, _ := env.store.Tickets.GetByID(ctx, t2.ID)
	third, _ := env.store.Tickets.GetByID(ctx, t3.ID)
	assert.Equal(t, agentA.ID, *first.AssigneeID)
	assert.Equal(t, agentB.ID, *second.AssigneeID)
	assert.Equal(t, agentA.ID, *third.AssigneeID, "rotation wraps around")

	for _, ticket := range []*domain.Ticket{t1, t2, t3} {
		records := env.activitiesFor(t, ticket.ID)
		require.Len(t, records, 1)
		assert.Equal(t, domain.ActivityAutoAssigned, records[0].Type)
	}
}

func TestAutoAssignSkipsAssignedAndClosedTickets(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)

	assigned := env.seedTicket(t, user, category)
	assigned.AssigneeID = &agent.ID
	require.NoError(t, env.store.Tickets.Update(context.Background(), assigned))

	closed := env.seedTicket(t, user, category)
	closed.Status = domain.TicketStatusClosed
	require.NoError(t, env.store.Tickets.Update(context.Background(), closed))

	open := env.seedTicket(t, user, category)

	result, err := svc.AutoAssignAll(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AssignedCount)

	stored, _ := env.store.Tickets.GetByID(context.Background(), open.ID)
	require.NotNil(t, stored.AssigneeID)
	assert.Equal(t, agent.ID, *stored.AssigneeID)
}

func TestAutoAssignFailsWithoutAgents(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	admin := env.seedUser(t, "root", domain.RoleAdmin)

	_, err := svc.AutoAssignAll(context.Background(), admin)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestAutoAssignRequiresAdmin(t *testing.T) {
	env := newTestEnv()
	svc := newAssignmentService(env)
	agent := env.seedUser(t, "bob", domain.RoleAgent)

	_, err := svc.AutoAssignAll(context.Background(), agent)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}
