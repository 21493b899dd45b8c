package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/quickdesk/internal/auth"
	"github.com/quickdesk/quickdesk/internal/config"
	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

// AdminService covers admin-only management of accounts and categories.
type AdminService struct {
	store *repository.Store
	cfg   config.AuthConfig
}

// AdminDependencies bundles collaborators.
type AdminDependencies struct {
	Store  *repository.Store
	Config config.AuthConfig
}

// NewAdminService creates the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{store: deps.Store, cfg: deps.Config}
}

// UserCreateInput describes an admin-created account.
type UserCreateInput struct {
	Username  string
	Email     string
	Password  string
	Role      domain.Role
	FirstName string
	LastName  string
	Phone     string
}

// UserUpdateInput carries optional field updates; nil fields stay unchanged.
type UserUpdateInput struct {
	Email     *string
	Role      *domain.Role
	Active    *bool
	FirstName *string
	LastName  *string
	Phone     *string
}

// CreateUser provisions an account with an explicit role.
func (s *AdminService) CreateUser(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewInvalidArgument("invalid role", map[string]any{"role": input.Role})
	}

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return nil, apperrors.NewInvalidArgument("username and email are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewInvalidArgument("password must be at least 8 characters", nil)
	}

	if _, err := s.store.Users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser applies partial updates to an account. Admins cannot deactivate
// or demote themselves.
func (s *AdminService) UpdateUser(ctx context.Context, actor *domain.User, userID int64, input UserUpdateInput) (*domain.User, error) {
	if !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}

	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}

	if user.ID == actor.ID {
		if input.Active != nil && !*input.Active {
			return nil, apperrors.NewConflict("cannot deactivate your own account", nil)
		}
		if input.Role != nil && !input.Role.CanAdministrate() {
			return nil, apperrors.NewConflict("cannot remove your own admin role", nil)
		}
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, apperrors.NewInvalidArgument("email cannot be empty", nil)
		}
		if email != user.Email {
			if existing, err := s.store.Users.GetByEmail(ctx, email); err == nil && existing.ID != user.ID {
				return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
		}
		user.Email = email
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewInvalidArgument("invalid role", map[string]any{"role": *input.Role})
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}

	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account that owns no tickets and is assigned none.
// Accounts with ticket history should be deactivated instead so the audit
// trail keeps its author references.
func (s *AdminService) DeleteUser(ctx context.Context, actor *domain.User, userID int64) error {
	if !actor.CanAdministrate() {
		return apperrors.NewPermissionDenied("admin role required")
	}
	if userID == actor.ID {
		return apperrors.NewConflict("cannot delete your own account", nil)
	}

	created, err := s.store.Tickets.ListWithFilter(ctx, repository.TicketFilter{CreatorID: &userID, Limit: 1})
	if err != nil {
		return apperrors.MapError(err)
	}
	assigned, err := s.store.Tickets.ListWithFilter(ctx, repository.TicketFilter{AssigneeID: &userID, Limit: 1})
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(created) > 0 || len(assigned) > 0 {
		return apperrors.NewConflict("user has ticket history; deactivate the account instead", nil)
	}

	if err := s.store.Users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListUsers lists accounts with optional role and active filters.
func (s *AdminService) ListUsers(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}
	users, err := s.store.Users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// CategoryInput describes a category create or update.
type CategoryInput struct {
	Name        string
	Description string
	Active      bool
}

// CreateCategory adds a category. Names are unique.
func (s *AdminService) CreateCategory(ctx context.Context, actor *domain.User, input CategoryInput) (*domain.Category, error) {
	if !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewInvalidArgument("category name is required", nil)
	}

	if _, err := s.store.Categories.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("category name already exists", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Active:      input.Active,
	}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory edits a category, keeping names unique.
func (s *AdminService) UpdateCategory(ctx context.Context, actor *domain.User, categoryID int64, input CategoryInput) (*domain.Category, error) {
	if !actor.CanAdministrate() {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}

	category, err := s.store.Categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return nil, apperrors.MapError(err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewInvalidArgument("category name is required", nil)
	}
	if name != category.Name {
		if existing, err := s.store.Categories.GetByName(ctx, name); err == nil && existing.ID != category.ID {
			return nil, apperrors.NewConflict("category name already exists", map[string]any{"name": name})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	category.Name = name
	category.Description = strings.TrimSpace(input.Description)
	category.Active = input.Active
	if err := s.store.Categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// DeleteCategory removes a category with no tickets. Categories that are in
// use should be deactivated instead.
func (s *AdminService) DeleteCategory(ctx context.Context, actor *domain.User, categoryID int64) error {
	if !actor.CanAdministrate() {
		return apperrors.NewPermissionDenied("admin role required")
	}

	count, err := s.store.Categories.CountTickets(ctx, categoryID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("category has tickets; deactivate it instead", map[string]any{"ticket_count": count})
	}

	if err := s.store.Categories.Delete(ctx, categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListCategories lists categories; non-admin callers see active ones only.
func (s *AdminService) ListCategories(ctx context.Context, actor *domain.User) ([]domain.Category, error) {
	activeOnly := !actor.CanAdministrate()
	categories, err := s.store.Categories.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}
