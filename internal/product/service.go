package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrInvalidStatus = errors.New("invalid product status")

// Update carries the editable fields of a product.
type Update struct {
	Name        string
	Type        string
	Price       decimal.Decimal
	Description string
	ImageURL    string
}

type Service interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, upd Update) (*Product, error)
	ChangeStatus(ctx context.Context, id int64, status Status) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, cache Cache) Service {
	if cache == nil {
		cache = NewNoopCache()
	}
	return &service{repo: repo, cache: cache}
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	p.ID = 0
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !p.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("service: product created")
	return p, nil
}

// GetProductByID reads through the cache. Cache failures only cost a database round trip.
func (s *service) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Warn().Err(err).Int64("product_id", id).Msg("service: product cache read failed")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to fetch product by id in repository")
		return nil, fmt.Errorf("service: failed to fetch product by id: %w", err)
	}

	if err := s.cache.Set(ctx, p); err != nil {
		log.Warn().Err(err).Int64("product_id", id).Msg("service: product cache write failed")
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products in repository")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct copies the editable fields onto the stored product. Status is
// changed separately through ChangeStatus.
func (s *service) UpdateProduct(ctx context.Context, id int64, upd Update) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product for update: %w", err)
	}

	p.Name = upd.Name
	p.Type = upd.Type
	p.Price = upd.Price
	p.Description = upd.Description
	p.ImageURL = upd.ImageURL

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) ChangeStatus(ctx context.Context, id int64, status Status) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product for status change: %w", err)
	}

	switch status {
	case StatusActive:
		p.Activate()
	case StatusInactive:
		p.Deactivate()
	case StatusOutOfStock:
		p.MarkAsOutOfStock()
	default:
		return nil, ErrInvalidStatus
	}

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Int64("product_id", id).Stringer("status", status).Msg("service: product status changed")
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrInUse) {
			return ErrInUse
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}
	s.evict(ctx, id)
	return nil
}

func (s *service) save(ctx context.Context, p *Product) error {
	if err := s.repo.Save(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Int64("product_id", p.ID).Msg("service: failed to save product")
		return fmt.Errorf("service: failed to save product: %w", err)
	}
	s.evict(ctx, p.ID)
	return nil
}

func (s *service) evict(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Int64("product_id", id).Msg("service: product cache eviction failed")
	}
}
