package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

func newTicketService(env *testEnv) *TicketService {
	return NewTicketService(TicketDependencies{Store: env.store, UnitOfWork: env.uow})
}

func TestCreateWritesCreatedActivity(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	category := env.seedCategory(t, "hardware", true)

	ticket, err := svc.Create(context.Background(), user, TicketCreateInput{
		Subject:     "laptop will not boot",
		Description: "black screen on power up",
		CategoryID:  category.ID,
		Tags:        []string{"laptop", "boot", "laptop"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Len(t, ticket.Tags, 2, "duplicate tag names collapse")

	records := env.activitiesFor(t, ticket.ID)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ActivityCreated, records[0].Type)
	assert.Equal(t, user.ID, records[0].UserID)
}

func TestCreateStoresAttachmentMetadata(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	category := env.seedCategory(t, "hardware", true)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, user, TicketCreateInput{
		Subject:     "screen flickers",
		Description: "see attached video",
		CategoryID:  category.ID,
		Attachments: []AttachmentInput{
			{OriginalFilename: "flicker.mp4", SizeBytes: 1024, MimeType: "video/mp4"},
		},
	})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, user, ticket.ID)
	require.NoError(t, err)
	require.Len(t, detail.Attachments, 1)
	assert.Equal(t, "flicker.mp4", detail.Attachments[0].OriginalFilename)
	assert.NotEmpty(t, detail.Attachments[0].StorageKey)
}

func TestCreateRejectsInactiveCategory(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	category := env.seedCategory(t, "retired", false)

	_, err := svc.Create(context.Background(), user, TicketCreateInput{
		Subject:     "anything",
		Description: "anything",
		CategoryID:  category.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestUpdateStatusRequiresAssignment(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	_, err := svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))

	stored, err := env.store.Tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status, "status stays untouched on denial")
	assert.Empty(t, env.activitiesFor(t, ticket.ID))
}

func TestUpdateStatusByAssigneeWritesAudit(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)
	ticket.AssigneeID = &agent.ID
	require.NoError(t, env.store.Tickets.Update(context.Background(), ticket))

	updated, err := svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)

	records := env.activitiesFor(t, ticket.ID)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ActivityStatusChanged, records[0].Type)
	require.NotNil(t, records[0].OldValue)
	require.NotNil(t, records[0].NewValue)
	assert.Equal(t, "open", *records[0].OldValue)
	assert.Equal(t, "resolved", *records[0].NewValue)
}

func TestUpdateStatusAdminBypassesAssignment(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	updated, err := svc.UpdateStatus(context.Background(), admin, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	admin := env.seedUser(t, "root", domain.RoleAdmin)

	_, err := svc.UpdateStatus(context.Background(), admin, 1, domain.TicketStatus("archived"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
}

func TestEditNoopWritesNoActivity(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	same := ticket.Subject
	_, err := svc.Edit(context.Background(), admin, ticket.ID, TicketEditInput{Subject: &same})
	require.NoError(t, err)
	assert.Empty(t, env.activitiesFor(t, ticket.ID))
}

func TestEditWritesSingleActivityWithDiff(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	subject := "printer smoking heavily"
	priority := domain.TicketPriorityHigh
	updated, err := svc.Edit(context.Background(), admin, ticket.ID, TicketEditInput{
		Subject:  &subject,
		Priority: &priority,
	})
	require.NoError(t, err)
	assert.Equal(t, subject, updated.Subject)
	assert.Equal(t, priority, updated.Priority)

	records := env.activitiesFor(t, ticket.ID)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ActivityEdited, records[0].Type)
	assert.Contains(t, records[0].Description, "Subject:")
	assert.Contains(t, records[0].Description, "Priority: medium -> high")
}

func TestEditRequiresAdmin(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	agent := env.seedUser(t, "bob", domain.RoleAgent)

	_, err := svc.Edit(context.Background(), agent, 1, TicketEditInput{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}

func TestDeleteCascadesChildRecords(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	admin := env.seedUser(t, "root", domain.RoleAdmin)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	ctx := context.Background()
	_, err := svc.AddComment(ctx, user, ticket.ID, "any news?", false)
	require.NoError(t, err)
	require.NoError(t, env.store.Votes.Create(ctx, &domain.Vote{TicketID: ticket.ID, UserID: user.ID, Type: domain.VoteUp}))
	require.NoError(t, env.store.Escalations.Create(ctx, &domain.Escalation{TicketID: ticket.ID, EscalatedBy: admin.ID, Reason: "stuck"}))

	require.NoError(t, svc.Delete(ctx, admin, ticket.ID))

	_, err = env.store.Tickets.GetByID(ctx, ticket.ID)
	require.Error(t, err)

	comments, err := env.store.Comments.ListByTicket(ctx, ticket.ID, true)
	require.NoError(t, err)
	assert.Empty(t, comments)

	score, err := env.store.Votes.Score(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Zero(t, score)

	escalations, err := env.store.Escalations.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, escalations)
	assert.Empty(t, env.activitiesFor(t, ticket.ID))
}

func TestGetHidesInternalCommentsFromEndUsers(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	ctx := context.Background()
	_, err := svc.AddComment(ctx, agent, ticket.ID, "customer is confused", true)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, agent, ticket.ID, "we are looking into it", false)
	require.NoError(t, err)

	detail, err := svc.Get(ctx, user, ticket.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "we are looking into it", detail.Comments[0].Content)

	agentDetail, err := svc.Get(ctx, agent, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, agentDetail.Comments, 2)
}

func TestInternalFlagStrippedForEndUsers(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	user := env.seedUser(t, "alice", domain.RoleUser)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, user, category)

	comment, err := svc.AddComment(context.Background(), user, ticket.ID, "please hurry", true)
	require.NoError(t, err)
	assert.False(t, comment.Internal)
}

func TestListScopesEndUsersToOwnTickets(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	alice := env.seedUser(t, "alice", domain.RoleUser)
	carol := env.seedUser(t, "carol", domain.RoleUser)
	agent := env.seedUser(t, "bob", domain.RoleAgent)
	category := env.seedCategory(t, "hardware", true)
	env.seedTicket(t, alice, category)
	env.seedTicket(t, carol, category)

	ctx := context.Background()
	mine, err := svc.List(ctx, alice, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].CreatorID)

	all, err := svc.List(ctx, agent, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetDeniesForeignTicketToEndUser(t *testing.T) {
	env := newTestEnv()
	svc := newTicketService(env)
	alice := env.seedUser(t, "alice", domain.RoleUser)
	carol := env.seedUser(t, "carol", domain.RoleUser)
	category := env.seedCategory(t, "hardware", true)
	ticket := env.seedTicket(t, alice, category)

	_, err := svc.Get(context.Background(), carol, ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}
