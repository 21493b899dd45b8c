package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
)

// memData is shared in-memory state backing the fake repositories used by
// the service tests.
type memData struct {
	nextID      int64
	users       map[int64]*domain.User
	categories  map[int64]*domain.Category
	tags        map[int64]*domain.Tag
	tickets     map[int64]*domain.Ticket
	ticketTags  map[int64][]int64
	comments    []*domain.Comment
	votes       map[int64]*domain.Vote
	attachments []*domain.Attachment
	activities  []*domain.ActivityRecord
	escalations []*domain.Escalation
}

func newMemData() *memData {
	return &memData{
		users:      make(map[int64]*domain.User),
		categories: make(map[int64]*domain.Category),
		tags:       make(map[int64]*domain.Tag),
		tickets:    make(map[int64]*domain.Ticket),
		ticketTags: make(map[int64][]int64),
		votes:      make(map[int64]*domain.Vote),
	}
}

func (d *memData) id() int64 {
	d.nextID++
	return d.nextID
}

func newMemStore() (*repository.Store, *memData) {
	d := newMemData()
	store := &repository.Store{
		Users:       &memUsers{d: d},
		Categories:  &memCategories{d: d},
		Tags:        &memTags{d: d},
		Tickets:     &memTickets{d: d},
		Comments:    &memComments{d: d},
		Votes:       &memVotes{d: d},
		Attachments: &memAttachments{d: d},
		Activities:  &memActivities{d: d},
		Escalations: &memEscalations{d: d},
	}
	return store, d
}

// memUnitOfWork runs the callback against the same store. Rollback is not
// simulated; tests assert on success paths and on checks made before writes.
type memUnitOfWork struct {
	store *repository.Store
}

func (u *memUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, s *repository.Store) error) error {
	return fn(ctx, u.store)
}

type memUsers struct{ d *memData }

func (r *memUsers) Create(ctx context.Context, user *domain.User) error {
	user.ID = r.d.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.d.users[user.ID] = &clone
	return nil
}

func (r *memUsers) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.d.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.d.users[user.ID] = &clone
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.d.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range r.d.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.d.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var result []domain.User
	for _, id := range sortedKeys(r.d.users) {
		user := r.d.users[id]
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (r *memUsers) ListActiveAgents(ctx context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, id := range sortedKeys(r.d.users) {
		user := r.d.users[id]
		if user.Role == domain.RoleAgent && user.Active {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *memUsers) Delete(ctx context.Context, id int64) error {
	if _, ok := r.d.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.d.users, id)
	return nil
}

type memCategories struct{ d *memData }

func (r *memCategories) Create(ctx context.Context, category *domain.Category) error {
	category.ID = r.d.id()
	category.CreatedAt = time.Now()
	clone := *category
	r.d.categories[category.ID] = &clone
	return nil
}

func (r *memCategories) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := r.d.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *category
	r.d.categories[category.ID] = &clone
	return nil
}

func (r *memCategories) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, ok := r.d.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *memCategories) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, category := range r.d.categories {
		if category.Name == name {
			clone := *category
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memCategories) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	var result []domain.Category
	for _, id := range sortedKeys(r.d.categories) {
		category := r.d.categories[id]
		if activeOnly && !category.Active {
			continue
		}
		result = append(result, *category)
	}
	return result, nil
}

func (r *memCategories) Delete(ctx context.Context, id int64) error {
	if _, ok := r.d.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.d.categories, id)
	return nil
}

func (r *memCategories) CountTickets(ctx context.Context, id int64) (int64, error) {
	var count int64
	for _, ticket := range r.d.tickets {
		if ticket.CategoryID == id {
			count++
		}
	}
	return count, nil
}

type memTags struct{ d *memData }

func (r *memTags) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	for _, tag := range r.d.tags {
		if tag.Name == name {
			clone := *tag
			return &clone, nil
		}
	}
	tag := &domain.Tag{ID: r.d.id(), Name: name, CreatedAt: time.Now()}
	r.d.tags[tag.ID] = tag
	clone := *tag
	return &clone, nil
}

func (r *memTags) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Tag, error) {
	var result []domain.Tag
	for _, tagID := range r.d.ticketTags[ticketID] {
		if tag, ok := r.d.tags[tagID]; ok {
			result = append(result, *tag)
		}
	}
	return result, nil
}

func (r *memTags) AttachToTicket(ctx context.Context, ticketID, tagID int64) error {
	for _, existing := range r.d.ticketTags[ticketID] {
		if existing == tagID {
			return nil
		}
	}
	r.d.ticketTags[ticketID] = append(r.d.ticketTags[ticketID], tagID)
	return nil
}

func (r *memTags) ClearTicketTags(ctx context.Context, ticketID int64) error {
	delete(r.d.ticketTags, ticketID)
	return nil
}

type memTickets struct{ d *memData }

func (r *memTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	ticket.ID = r.d.id()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.d.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := r.d.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.d.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTickets) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := r.d.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *memTickets) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, id := range sortedKeys(r.d.tickets) {
		ticket := r.d.tickets[id]
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.CategoryID != nil && ticket.CategoryID != *filter.CategoryID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(ticket.Subject, *filter.SearchTerm) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *memTickets) ListUnassigned(ctx context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, id := range sortedKeys(r.d.tickets) {
		ticket := r.d.tickets[id]
		if ticket.AssigneeID != nil {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, ticket.Status) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *memTickets) Delete(ctx context.Context, id int64) error {
	if _, ok := r.d.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.d.tickets, id)
	return nil
}

type memComments struct{ d *memData }

func (r *memComments) Create(ctx context.Context, comment *domain.Comment) error {
	comment.ID = r.d.id()
	comment.CreatedAt = time.Now()
	clone := *comment
	r.d.comments = append(r.d.comments, &clone)
	return nil
}

func (r *memComments) ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, comment := range r.d.comments {
		if comment.TicketID != ticketID {
			continue
		}
		if comment.Internal && !includeInternal {
			continue
		}
		result = append(result, *comment)
	}
	return result, nil
}

func (r *memComments) DeleteByTicket(ctx context.Context, ticketID int64) error {
	kept := r.d.comments[:0]
	for _, comment := range r.d.comments {
		if comment.TicketID != ticketID {
			kept = append(kept, comment)
		}
	}
	r.d.comments = kept
	return nil
}

type memVotes struct{ d *memData }

func (r *memVotes) GetByTicketAndUser(ctx context.Context, ticketID, userID int64) (*domain.Vote, error) {
	for _, vote := range r.d.votes {
		if vote.TicketID == ticketID && vote.UserID == userID {
			clone := *vote
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memVotes) Create(ctx context.Context, vote *domain.Vote) error {
	vote.ID = r.d.id()
	vote.CreatedAt = time.Now()
	clone := *vote
	r.d.votes[vote.ID] = &clone
	return nil
}

func (r *memVotes) UpdateType(ctx context.Context, id int64, voteType domain.VoteType) error {
	vote, ok := r.d.votes[id]
	if !ok {
		return pgx.ErrNoRows
	}
	vote.Type = voteType
	return nil
}

func (r *memVotes) Delete(ctx context.Context, id int64) error {
	if _, ok := r.d.votes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.d.votes, id)
	return nil
}

func (r *memVotes) DeleteByTicket(ctx context.Context, ticketID int64) error {
	for id, vote := range r.d.votes {
		if vote.TicketID == ticketID {
			delete(r.d.votes, id)
		}
	}
	return nil
}

func (r *memVotes) Score(ctx context.Context, ticketID int64) (int, error) {
	score := 0
	for _, vote := range r.d.votes {
		if vote.TicketID != ticketID {
			continue
		}
		if vote.Type == domain.VoteUp {
			score++
		} else {
			score--
		}
	}
	return score, nil
}

type memAttachments struct{ d *memData }

func (r *memAttachments) Create(ctx context.Context, attachment *domain.Attachment) error {
	attachment.ID = r.d.id()
	attachment.CreatedAt = time.Now()
	clone := *attachment
	r.d.attachments = append(r.d.attachments, &clone)
	return nil
}

func (r *memAttachments) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, attachment := range r.d.attachments {
		if attachment.TicketID == ticketID {
			result = append(result, *attachment)
		}
	}
	return result, nil
}

func (r *memAttachments) DeleteByTicket(ctx context.Context, ticketID int64) error {
	kept := r.d.attachments[:0]
	for _, attachment := range r.d.attachments {
		if attachment.TicketID != ticketID {
			kept = append(kept, attachment)
		}
	}
	r.d.attachments = kept
	return nil
}

type memActivities struct{ d *memData }

func (r *memActivities) Create(ctx context.Context, record *domain.ActivityRecord) error {
	record.ID = r.d.id()
	record.CreatedAt = time.Now()
	clone := *record
	r.d.activities = append(r.d.activities, &clone)
	return nil
}

func (r *memActivities) ListByTicket(ctx context.Context, ticketID int64) ([]domain.ActivityRecord, error) {
	var result []domain.ActivityRecord
	for _, record := range r.d.activities {
		if record.TicketID == ticketID {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (r *memActivities) DeleteByTicket(ctx context.Context, ticketID int64) error {
	kept := r.d.activities[:0]
	for _, record := range r.d.activities {
		if record.TicketID != ticketID {
			kept = append(kept, record)
		}
	}
	r.d.activities = kept
	return nil
}

type memEscalations struct{ d *memData }

func (r *memEscalations) Create(ctx context.Context, escalation *domain.Escalation) error {
	escalation.ID = r.d.id()
	escalation.EscalatedAt = time.Now()
	clone := *escalation
	r.d.escalations = append(r.d.escalations, &clone)
	return nil
}

func (r *memEscalations) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Escalation, error) {
	var result []domain.Escalation
	for _, escalation := range r.d.escalations {
		if escalation.TicketID == ticketID {
			result = append(result, *escalation)
		}
	}
	return result, nil
}

func (r *memEscalations) DeleteByTicket(ctx context.Context, ticketID int64) error {
	kept := r.d.escalations[:0]
	for _, escalation := range r.d.escalations {
		if escalation.TicketID != ticketID {
			kept = append(kept, escalation)
		}
	}
	r.d.escalations = kept
	return nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func containsStatus(list []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, priority domain.TicketPriority) bool {
	for _, p := range list {
		if p == priority {
			return true
		}
	}
	return false
}
