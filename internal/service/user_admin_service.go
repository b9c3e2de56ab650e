package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/repository"
	apperrors "github.com/bumex/engagement-service/pkg/util"
)

// UserAdminService covers administrative account maintenance. Accounts are
// approved and blocked, never deleted.
type UserAdminService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewUserAdminService constructs the service.
func NewUserAdminService(users repository.UserRepository, dispatcher events.Dispatcher) *UserAdminService {
	return &UserAdminService{users: users, dispatcher: dispatcher, now: time.Now}
}

// ApproveUser marks a provisioned account as approved for login.
func (s *UserAdminService) ApproveUser(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	return s.mutate(ctx, actor, userID, events.EventUserApproved, func(user *domain.User) error {
		user.Approved = true
		return nil
	})
}

// BlockUser blocks an account. Any live session is rejected on its next
// request by the session guard's account-state checks.
func (s *UserAdminService) BlockUser(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	return s.mutate(ctx, actor, userID, events.EventUserBlocked, func(user *domain.User) error {
		user.Blocked = true
		return nil
	})
}

// UnblockUser lifts a block.
func (s *UserAdminService) UnblockUser(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	return s.mutate(ctx, actor, userID, events.EventUserUnblocked, func(user *domain.User) error {
		user.Blocked = false
		return nil
	})
}

// ChangeRole updates an account's global role.
func (s *UserAdminService) ChangeRole(ctx context.Context, actor *domain.User, userID string, role domain.GlobalRole) (*domain.User, error) {
	switch role {
	case domain.GlobalRoleUser, domain.GlobalRoleSemiAdmin, domain.GlobalRoleAdmin, domain.GlobalRoleDev:
	default:
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	return s.mutate(ctx, actor, userID, events.EventUserRoleChanged, func(user *domain.User) error {
		user.Role = role
		return nil
	})
}

func (s *UserAdminService) mutate(ctx context.Context, actor *domain.User, userID string, eventType events.EventType, apply func(*domain.User) error) (*domain.User, error) {
	if !actor.IsDevOrAdmin() {
		return nil, apperrors.NewForbidden("dev or admin role required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewPersistenceFailed(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
			Timestamp: s.now(),
			Payload:   events.UserAdminPayload{TargetUserID: user.ID, NewRole: user.Role},
		})
	}
	return user, nil
}
