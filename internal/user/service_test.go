package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestUserService_CreateUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	testUser := &user.User{
		Username:     " alice ",
		Email:        "alice@example.com",
		PasswordHash: "somepassword",
	}

	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*user.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*user.User).ID = 11
		}).
		Return(nil).
		Once()

	createdUser, err := userService.CreateUser(context.Background(), testUser)
	require.NoError(t, err)
	require.NotNil(t, createdUser)

	assert.Equal(t, int64(11), createdUser.ID)
	assert.Equal(t, "alice", createdUser.Username)
	assert.Equal(t, user.RoleUser, createdUser.Role)
	assert.True(t, createdUser.Enabled)

	err = bcrypt.CompareHashAndPassword([]byte(createdUser.PasswordHash), []byte("somepassword"))
	require.NoError(t, err, "password hash does not match raw password")
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   user.User
		repoErr error
		wantErr error
	}{
		{name: "empty_password", input: user.User{Username: "a"}, wantErr: user.ErrPasswordRequired},
		{name: "bad_role", input: user.User{Username: "a", PasswordHash: "pw", Role: "ROOT"}, wantErr: user.ErrInvalidRole},
		{name: "duplicate", input: user.User{Username: "a", PasswordHash: "pw"}, repoErr: user.ErrUsernameExists, wantErr: user.ErrUsernameExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			userService := user.NewService(mockRepo)
			if tt.repoErr != nil {
				mockRepo.On("Save", mock.Anything, mock.Anything).Return(tt.repoErr).Once()
			}

			input := tt.input
			created, err := userService.CreateUser(context.Background(), &input)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, created)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_UpdateUser_KeepsPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	stored := &user.User{ID: 3, Username: "old", Email: "old@example.com", PasswordHash: "stored-hash", Enabled: true, Role: user.RoleUser}
	mockRepo.On("FindByID", mock.Anything, int64(3)).Return(stored, nil).Once()
	mockRepo.On("Save", mock.Anything, stored).Return(nil).Once()

	updated, err := userService.UpdateUser(context.Background(), &user.User{ID: 3, Username: "new", Email: "new@example.com", Role: user.RoleAdmin})
	require.NoError(t, err)

	want := &user.User{ID: 3, Username: "new", Email: "new@example.com", PasswordHash: "stored-hash", Enabled: true, Role: user.RoleAdmin}
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("UpdateUser() mismatch (-want +got):\n%s", diff)
	}
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	mockRepo.On("FindByID", mock.Anything, int64(3)).Return(nil, user.ErrNotFound).Once()

	_, err := userService.UpdateUser(context.Background(), &user.User{ID: 3, Username: "x"})
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserService_SetEnabled(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	stored := user.New("carol", "", "hash")
	stored.ID = 5
	mockRepo.On("FindByID", mock.Anything, int64(5)).Return(stored, nil).Twice()
	mockRepo.On("Save", mock.Anything, stored).Return(nil).Twice()

	got, err := userService.SetEnabled(context.Background(), 5, false)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	got, err = userService.SetEnabled(context.Background(), 5, true)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Run("missing_user_is_noop", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		userService := user.NewService(mockRepo)
		mockRepo.On("Delete", mock.Anything, int64(77)).Return(nil).Once()

		require.NoError(t, userService.DeleteUser(context.Background(), 77))
		mockRepo.AssertExpectations(t)
	})

	t.Run("has_orders", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		userService := user.NewService(mockRepo)
		mockRepo.On("Delete", mock.Anything, int64(77)).Return(user.ErrHasOrders).Once()

		require.ErrorIs(t, userService.DeleteUser(context.Background(), 77), user.ErrHasOrders)
	})

	t.Run("db_error", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		userService := user.NewService(mockRepo)
		dbErr := errors.New("connection reset")
		mockRepo.On("Delete", mock.Anything, int64(77)).Return(dbErr).Once()

		err := userService.DeleteUser(context.Background(), 77)
		require.ErrorIs(t, err, dbErr)
	})
}
