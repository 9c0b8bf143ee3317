package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordRequired = errors.New("password cannot be empty")
	ErrInvalidRole      = errors.New("invalid user role")
)

type Service interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateUser expects the plain password in PasswordHash and replaces it with a bcrypt hash.
func (s *service) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user.PasswordHash == "" {
		return nil, ErrPasswordRequired
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	if !user.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := hashPassword(user.PasswordHash)
	if err != nil {
		return nil, err
	}
	user.ID = 0
	user.PasswordHash = hash
	user.Username = strings.TrimSpace(user.Username)
	user.Enabled = true

	if err := s.repo.Save(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return nil, ErrUsernameExists
		}
		log.Error().Err(err).Str("username", user.Username).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("service: user created")
	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("service: failed to get user by id %d: %w", id, err)
	}
	return user, nil
}

func (s *service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("service: failed to get user by username in repository")
		return nil, fmt.Errorf("service: failed to get user by username %q: %w", username, err)
	}
	return user, nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser changes username, email and role. An empty PasswordHash keeps
// the current password, otherwise it is treated as a new plain password.
func (s *service) UpdateUser(ctx context.Context, user *User) (*User, error) {
	current, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if user.Role != "" {
		if !user.Role.Valid() {
			return nil, ErrInvalidRole
		}
		current.Role = user.Role
	}
	current.Username = strings.TrimSpace(user.Username)
	current.Email = user.Email

	if user.PasswordHash != "" {
		hash, err := hashPassword(user.PasswordHash)
		if err != nil {
			return nil, err
		}
		current.PasswordHash = hash
	}

	if err := s.save(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *service) SetEnabled(ctx context.Context, id int64, enabled bool) (*User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if enabled {
		user.Enable()
	} else {
		user.Disable()
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", id).Bool("enabled", enabled).Msg("service: user enabled flag changed")
	return user, nil
}

func (s *service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrHasOrders) {
			return ErrHasOrders
		}
		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to delete user")
		return fmt.Errorf("service: failed to delete user %d: %w", id, err)
	}
	return nil
}

func (s *service) save(ctx context.Context, user *User) error {
	if err := s.repo.Save(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ErrNotFound
		case errors.Is(err, ErrUsernameExists):
			return ErrUsernameExists
		}
		log.Error().Err(err).Int64("user_id", user.ID).Msg("service: failed to update user")
		return fmt.Errorf("service: failed to update user %d: %w", user.ID, err)
	}
	return nil
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate password hash")
		return "", fmt.Errorf("service: failed to hash password: %w", err)
	}
	return string(hash), nil
}
