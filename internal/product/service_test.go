package product_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*product.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*product.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]product.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, id int64) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestProductService_CreateProduct(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := product.NewService(repo, nil)

		p := &product.Product{ID: 99, Name: "Lamp", Type: "home", Price: decimal.RequireFromString("25.00")}
		repo.On("Save", mock.Anything, mock.MatchedBy(func(p *product.Product) bool {
			return p.ID == 0 && p.Status == product.StatusActive
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*product.Product).ID = 7
		}).Return(nil).Once()

		created, err := svc.CreateProduct(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, int64(7), created.ID)
		repo.AssertExpectations(t)
	})

	t.Run("invalid_price", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := product.NewService(repo, nil)

		_, err := svc.CreateProduct(context.Background(), &product.Product{Name: "Lamp", Type: "home", Price: decimal.RequireFromString("-5")})
		require.ErrorIs(t, err, product.ErrInvalidPrice)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid_status", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := product.NewService(repo, nil)

		_, err := svc.CreateProduct(context.Background(), &product.Product{Name: "Lamp", Type: "home", Status: "SOLD"})
		require.ErrorIs(t, err, product.ErrInvalidStatus)
	})
}

func TestProductService_GetProductByID_CacheHit(t *testing.T) {
	repo := new(MockProductRepository)
	cache := new(MockCache)
	svc := product.NewService(repo, cache)

	cached := &product.Product{ID: 3, Name: "Chair"}
	cache.On("Get", mock.Anything, int64(3)).Return(cached, nil).Once()

	got, err := svc.GetProductByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Same(t, cached, got)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestProductService_GetProductByID_CacheMiss(t *testing.T) {
	tests := []struct {
		name     string
		cacheErr error
	}{
		{name: "miss", cacheErr: product.ErrCacheMiss},
		{name: "cache_down", cacheErr: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			cache := new(MockCache)
			svc := product.NewService(repo, cache)

			stored := &product.Product{ID: 3, Name: "Chair"}
			cache.On("Get", mock.Anything, int64(3)).Return(nil, tt.cacheErr).Once()
			repo.On("FindByID", mock.Anything, int64(3)).Return(stored, nil).Once()
			cache.On("Set", mock.Anything, stored).Return(nil).Once()

			got, err := svc.GetProductByID(context.Background(), 3)
			require.NoError(t, err)
			assert.Equal(t, stored, got)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestProductService_GetProductByID_NotFound(t *testing.T) {
	repo := new(MockProductRepository)
	svc := product.NewService(repo, product.NewNoopCache())

	repo.On("FindByID", mock.Anything, int64(404)).Return(nil, product.ErrNotFound).Once()

	_, err := svc.GetProductByID(context.Background(), 404)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductService_UpdateProduct(t *testing.T) {
	repo := new(MockProductRepository)
	cache := new(MockCache)
	svc := product.NewService(repo, cache)

	existing := &product.Product{ID: 5, Name: "Old", Type: "misc", Price: decimal.RequireFromString("1.00"), Status: product.StatusOutOfStock}
	repo.On("FindByID", mock.Anything, int64(5)).Return(existing, nil).Once()
	repo.On("Save", mock.Anything, existing).Return(nil).Once()
	cache.On("Delete", mock.Anything, int64(5)).Return(nil).Once()

	upd := product.Update{Name: "New", Type: "books", Price: decimal.RequireFromString("12.50"), Description: "paperback"}
	got, err := svc.UpdateProduct(context.Background(), 5, upd)
	require.NoError(t, err)

	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "books", got.Type)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "paperback", got.Description)
	// status is untouched by an edit
	assert.Equal(t, product.StatusOutOfStock, got.Status)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	repo := new(MockProductRepository)
	svc := product.NewService(repo, nil)

	repo.On("FindByID", mock.Anything, int64(5)).Return(nil, product.ErrNotFound).Once()

	_, err := svc.UpdateProduct(context.Background(), 5, product.Update{Name: "x", Type: "y"})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductService_ChangeStatus(t *testing.T) {
	tests := []struct {
		name         string
		status       product.Status
		wantActive   bool
		wantOutStock bool
		wantErr      error
	}{
		{name: "activate", status: product.StatusActive, wantActive: true},
		{name: "deactivate", status: product.StatusInactive},
		{name: "out_of_stock", status: product.StatusOutOfStock, wantOutStock: true},
		{name: "unknown", status: "DISCONTINUED", wantErr: product.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			svc := product.NewService(repo, nil)

			p := &product.Product{ID: 1, Name: "Pen", Type: "office", Status: product.StatusInactive}
			repo.On("FindByID", mock.Anything, int64(1)).Return(p, nil).Once()
			if tt.wantErr == nil {
				repo.On("Save", mock.Anything, p).Return(nil).Once()
			}

			got, err := svc.ChangeStatus(context.Background(), 1, tt.status)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantActive, got.IsActive())
			assert.Equal(t, tt.wantOutStock, got.IsOutOfStock())
			repo.AssertExpectations(t)
		})
	}
}

func TestProductService_DeleteProduct(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(MockProductRepository)
		cache := new(MockCache)
		svc := product.NewService(repo, cache)

		repo.On("Delete", mock.Anything, int64(8)).Return(nil).Once()
		cache.On("Delete", mock.Anything, int64(8)).Return(errors.New("redis down")).Once()

		require.NoError(t, svc.DeleteProduct(context.Background(), 8))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("in_use", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := product.NewService(repo, nil)

		repo.On("Delete", mock.Anything, int64(8)).Return(product.ErrInUse).Once()

		require.ErrorIs(t, svc.DeleteProduct(context.Background(), 8), product.ErrInUse)
	})
}
