package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/store"
)

// ErrEmailTaken is returned when a staff account already uses the email.
var ErrEmailTaken = errors.New("email already registered")

// UserService manages staff accounts.
type UserService struct {
	store store.Store
	log   *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(st store.Store, log *zap.Logger) *UserService {
	return &UserService{store: st, log: log.With(zap.String("component", "users"))}
}

// CreateUserInput describes a new staff account.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// Create registers a staff account. Emails are stored lower-cased.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	role := in.Role
	if role == "" {
		role = models.RoleHealthWorker
	}
	if role != models.RoleAdmin && role != models.RoleHealthWorker {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      role,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("staff account created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// List returns every staff account.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}
