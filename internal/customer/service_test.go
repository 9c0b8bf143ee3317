package customer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByUserID(ctx context.Context, userID int64) (*customer.Customer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context) ([]customer.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockUserFinder struct {
	findByIDFunc func(ctx context.Context, id int64) (*user.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return m.findByIDFunc(ctx, id)
}

func usersWith(users ...*user.User) *mockUserFinder {
	return &mockUserFinder{findByIDFunc: func(_ context.Context, id int64) (*user.User, error) {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, user.ErrNotFound
	}}
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	frank := &user.User{ID: 1, Username: "frank"}

	tests := []struct {
		name    string
		input   customer.Customer
		repoErr error
		wantErr error
	}{
		{name: "success", input: customer.Customer{UserID: 1, Name: "Frank"}},
		{name: "missing_name", input: customer.Customer{UserID: 1}, wantErr: customer.ErrNameRequired},
		{name: "unknown_user", input: customer.Customer{UserID: 9, Name: "Ghost"}, wantErr: customer.ErrUserNotFound},
		{name: "already_exists", input: customer.Customer{UserID: 1, Name: "Frank"}, repoErr: customer.ErrExists, wantErr: customer.ErrExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCustomerRepository)
			svc := customer.NewService(repo, usersWith(frank))

			if tt.wantErr == nil || tt.repoErr != nil {
				repo.On("Save", mock.Anything, mock.AnythingOfType("*customer.Customer")).
					Run(func(args mock.Arguments) { args.Get(1).(*customer.Customer).ID = 21 }).
					Return(tt.repoErr).Once()
			}

			input := tt.input
			got, err := svc.CreateCustomer(context.Background(), &input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(21), got.ID)
			assert.Equal(t, "frank", got.Username())
			repo.AssertExpectations(t)
		})
	}
}

func TestCustomerService_GetCustomerByID_AttachesUser(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := customer.NewService(repo, usersWith(&user.User{ID: 2, Username: "grace"}))

	repo.On("FindByID", mock.Anything, int64(5)).Return(&customer.Customer{ID: 5, UserID: 2, Name: "Grace"}, nil).Once()

	got, err := svc.GetCustomerByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "grace", got.Username())
}

func TestCustomerService_GetCustomerByID_UserMissing(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := customer.NewService(repo, usersWith())

	repo.On("FindByID", mock.Anything, int64(5)).Return(&customer.Customer{ID: 5, UserID: 2, Name: "Grace"}, nil).Once()

	got, err := svc.GetCustomerByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, got.User)
	assert.Equal(t, "", got.Username())
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := customer.NewService(repo, usersWith(&user.User{ID: 2, Username: "grace"}))

	stored := &customer.Customer{ID: 5, UserID: 2, Name: "Grace"}
	repo.On("FindByID", mock.Anything, int64(5)).Return(stored, nil).Once()
	repo.On("Save", mock.Anything, stored).Return(nil).Once()

	got, err := svc.UpdateCustomer(context.Background(), &customer.Customer{
		ID: 5, UserID: 99, Name: "Grace H.", Address: "2 Elm St", City: "Shelbyville", Country: "USA",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.UserID, "owning user must not change")
	assert.Equal(t, "2 Elm St, Shelbyville, USA", got.FullAddress())
	repo.AssertExpectations(t)
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := customer.NewService(repo, usersWith())

	repo.On("Delete", mock.Anything, int64(1)).Return(customer.ErrHasOrders).Once()
	repo.On("Delete", mock.Anything, int64(2)).Return(errors.New("boom")).Once()
	repo.On("Delete", mock.Anything, int64(3)).Return(nil).Once()

	require.ErrorIs(t, svc.DeleteCustomer(context.Background(), 1), customer.ErrHasOrders)
	require.Error(t, svc.DeleteCustomer(context.Background(), 2))
	require.NoError(t, svc.DeleteCustomer(context.Background(), 3))
}
