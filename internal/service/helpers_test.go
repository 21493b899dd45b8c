package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
)

type testEnv struct {
	store *repository.Store
	data  *memData
	uow   repository.UnitOfWork
}

func newTestEnv() *testEnv {
	store, data := newMemStore()
	return &testEnv{
		store: store,
		data:  data,
		uow:   &memUnitOfWork{store: store},
	}
}

func (e *testEnv) seedUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, e.store.Users.Create(context.Background(), user))
	return user
}

func (e *testEnv) seedCategory(t *testing.T, name string, active bool) *domain.Category {
	t.Helper()
	category := &domain.Category{Name: name, Active: active}
	require.NoError(t, e.store.Categories.Create(context.Background(), category))
	return category
}

func (e *testEnv) seedTicket(t *testing.T, creator *domain.User, category *domain.Category) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Subject:     "printer is on fire",
		Description: "smoke everywhere",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		CreatorID:   creator.ID,
		CategoryID:  category.ID,
	}
	require.NoError(t, e.store.Tickets.Create(context.Background(), ticket))
	return ticket
}

func (e *testEnv) activitiesFor(t *testing.T, ticketID int64) []domain.ActivityRecord {
	t.Helper()
	records, err := e.store.Activities.ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	return records
}
