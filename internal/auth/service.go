package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/salesdesk/salesdesk/internal/platform/httpx"
	"github.com/salesdesk/salesdesk/internal/shared"
)

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new user account. Role defaults to supervisor.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already used", httpx.ErrDuplicate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := shared.Role(req.Role)
	if role == "" {
		role = shared.RoleSupervisor
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate validates email/password credentials and records the login.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

// UpdateProfile applies partial changes to the actor's own account.
func (s *Service) UpdateProfile(ctx context.Context, actor shared.Actor, req UpdateProfileRequest) (*User, error) {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		other, err := s.repo.FindByEmail(ctx, *req.Email)
		if err != nil && !errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, fmt.Errorf("%w: email already in use", httpx.ErrDuplicate)
		}
		user.Email = *req.Email
	}
	if req.NewPassword != nil {
		if req.CurrentPassword == nil {
			return nil, fmt.Errorf("%w: current password is required", httpx.ErrValidation)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*req.CurrentPassword)); err != nil {
			return nil, fmt.Errorf("%w: current password is incorrect", httpx.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Stats returns counts of records the actor has created.
func (s *Service) Stats(ctx context.Context, actor shared.Actor) (UserStats, error) {
	return s.repo.StatsByUser(ctx, actor.UserID)
}

// ActiveUsersToday counts users who logged in or registered since midnight.
func (s *Service) ActiveUsersToday(ctx context.Context) (int64, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.CountActiveSince(ctx, startOfDay)
}
