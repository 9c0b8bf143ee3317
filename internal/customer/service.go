package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

var ErrNameRequired = errors.New("customer name is required")

// UserFinder is the slice of the user repository the customer service needs.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

type Service interface {
	CreateCustomer(ctx context.Context, c *Customer) (*Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (*Customer, error)
	GetCustomerByUserID(ctx context.Context, userID int64) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) (*Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

type service struct {
	repo  Repository
	users UserFinder
}

func NewService(repo Repository, users UserFinder) Service {
	return &service{repo: repo, users: users}
}

func (s *service) CreateCustomer(ctx context.Context, c *Customer) (*Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, ErrNameRequired
	}

	u, err := s.users.FindByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("service: failed to load user for customer: %w", err)
	}

	c.ID = 0
	c.User = u
	if err := s.repo.Save(ctx, c); err != nil {
		if errors.Is(err, ErrExists) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", c.UserID).Msg("service: failed to create customer in repository")
		return nil, fmt.Errorf("service: failed to create customer: %w", err)
	}

	log.Info().Int64("customer_id", c.ID).Int64("user_id", c.UserID).Msg("service: customer created")
	return c, nil
}

// GetCustomerByID returns the customer with its user attached.
func (s *service) GetCustomerByID(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("customer_id", id).Msg("service: failed to get customer by id in repository")
		return nil, fmt.Errorf("service: failed to get customer by id %d: %w", id, err)
	}
	s.attachUser(ctx, c)
	return c, nil
}

func (s *service) GetCustomerByUserID(ctx context.Context, userID int64) (*Customer, error) {
	c, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to get customer by user id %d: %w", userID, err)
	}
	s.attachUser(ctx, c)
	return c, nil
}

func (s *service) ListCustomers(ctx context.Context) ([]Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list customers: %w", err)
	}
	return customers, nil
}

// UpdateCustomer copies the profile fields. The owning user never changes.
func (s *service) UpdateCustomer(ctx context.Context, c *Customer) (*Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, ErrNameRequired
	}

	current, err := s.GetCustomerByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	current.Name = c.Name
	current.Phone = c.Phone
	current.Address = c.Address
	current.City = c.City
	current.PostalCode = c.PostalCode
	current.Country = c.Country
	current.Birthday = c.Birthday
	current.Gender = c.Gender

	if err := s.repo.Save(ctx, current); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("customer_id", c.ID).Msg("service: failed to update customer")
		return nil, fmt.Errorf("service: failed to update customer %d: %w", c.ID, err)
	}
	return current, nil
}

func (s *service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrHasOrders) {
			return ErrHasOrders
		}
		log.Error().Err(err).Int64("customer_id", id).Msg("service: failed to delete customer")
		return fmt.Errorf("service: failed to delete customer %d: %w", id, err)
	}
	return nil
}

// attachUser is best effort; a customer without its user still has a usable profile.
func (s *service) attachUser(ctx context.Context, c *Customer) {
	u, err := s.users.FindByID(ctx, c.UserID)
	if err != nil {
		log.Warn().Err(err).Int64("customer_id", c.ID).Int64("user_id", c.UserID).Msg("service: failed to load customer user")
		return
	}
	c.User = u
}
