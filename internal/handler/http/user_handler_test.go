package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	storeHandler "github.com/vasiliy-maslov/storefront/internal/handler/http"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

// serve routes a single request through a fresh chi router.
func serve(reg storeHandler.RouteRegistrar, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	router := chi.NewRouter()
	reg.RegisterRoutes(router)
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var errorResponse map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse), "Failed to decode error response body")
	return errorResponse["error"]
}

func TestUserHandler_handleCreateUser_Success(t *testing.T) {
	mockService := new(MockUserService)
	handler := storeHandler.NewUserHandler(mockService)

	requestDTO := storeHandler.CreateUserRequest{
		Username: "jack",
		Email:    "jack@example.com",
		Password: "password123",
	}

	created := user.User{
		ID:           10,
		Username:     requestDTO.Username,
		Email:        requestDTO.Email,
		PasswordHash: "hashed_password_from_service",
		Enabled:      true,
		Role:         user.RoleUser,
		CreatedAt:    time.Now().Truncate(time.Second),
		UpdatedAt:    time.Now().Truncate(time.Second),
	}

	mockService.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.Username == requestDTO.Username &&
			u.Email == requestDTO.Email &&
			u.PasswordHash == requestDTO.Password &&
			u.Role == user.RoleUser
	})).Return(&created, nil).Once()

	jsonBody, err := json.Marshal(requestDTO)
	require.NoError(t, err)

	rr := serve(handler, http.MethodPost, "/users", string(jsonBody), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var actual storeHandler.UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actual))

	expected := storeHandler.UserResponse{
		ID:        10,
		Username:  "jack",
		Email:     "jack@example.com",
		Enabled:   true,
		Role:      "USER",
		RoleLabel: "Regular user",
		CreatedAt: created.CreatedAt,
		UpdatedAt: created.UpdatedAt,
	}
	if diff := cmp.Diff(expected, actual, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, rr.Body.String(), "hashed_password_from_service")
	mockService.AssertExpectations(t)
}

func TestUserHandler_handleCreateUser_UsernameExists(t *testing.T) {
	mockService := new(MockUserService)
	handler := storeHandler.NewUserHandler(mockService)

	mockService.On("CreateUser", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(nil, user.ErrUsernameExists).
		Once()

	rr := serve(handler, http.MethodPost, "/users", `{"username":"jack","password":"password123"}`, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "username already exists", decodeError(t, rr))
	mockService.AssertExpectations(t)
}

func TestUserHandler_handleCreateUser_InvalidJSON(t *testing.T) {
	mockService := new(MockUserService)
	handler := storeHandler.NewUserHandler(mockService)

	rr := serve(handler, http.MethodPost, "/users", `{"username": "jack" "password": "pass}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr), "Invalid request payload")
	mockService.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserHandler_handleCreateUser_ValidationError(t *testing.T) {
	mockService := new(MockUserService)
	handler := storeHandler.NewUserHandler(mockService)

	rr := serve(handler, http.MethodPost, "/users", `{"username":"j","email":"incorrect-email","password":"123456","role":"ROOT"}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp storeHandler.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Equal(t, map[string]string{
		"username": "failed on 'min=3'",
		"email":    "failed on 'email'",
		"password": "failed on 'min=8'",
		"role":     "failed on 'oneof=USER ADMIN'",
	}, resp.Details)
	mockService.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserHandler_handleGetUserByID(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(m *MockUserService)
		wantStatus int
		wantError  string
	}{
		{
			name: "found",
			path: "/users/5",
			setup: func(m *MockUserService) {
				m.On("GetUserByID", mock.Anything, int64(5)).Return(&user.User{ID: 5, Username: "kate", Role: user.RoleAdmin}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not_found",
			path: "/users/6",
			setup: func(m *MockUserService) {
				m.On("GetUserByID", mock.Anything, int64(6)).Return(nil, user.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantError:  "user not found",
		},
		{
			name:       "bad_id",
			path:       "/users/abc",
			setup:      func(m *MockUserService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid id parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockUserService)
			tt.setup(mockService)

			rr := serve(storeHandler.NewUserHandler(mockService), http.MethodGet, tt.path, "", nil)
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rr))
			} else {
				var resp storeHandler.UserResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.True(t, resp.IsAdmin)
				assert.Equal(t, "Administrator", resp.RoleLabel)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestUserHandler_handleUpdateUser_KeepsPasswordWhenOmitted(t *testing.T) {
	mockService := new(MockUserService)
	handler := storeHandler.NewUserHandler(mockService)

	mockService.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.ID == 3 && u.Username == "jack2" && u.PasswordHash == ""
	})).Return(&user.User{ID: 3, Username: "jack2", Role: user.RoleUser}, nil).Once()

	rr := serve(handler, http.MethodPut, "/users/3", `{"username":"jack2"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestUserHandler_handleSetEnabled(t *testing.T) {
	mockService := new(MockUserService)
	handler := storeHandler.NewUserHandler(mockService)

	mockService.On("SetEnabled", mock.Anything, int64(3), false).Return(&user.User{ID: 3, Enabled: false}, nil).Once()

	rr := serve(handler, http.MethodPost, "/users/3/disable", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp storeHandler.UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Enabled)
	mockService.AssertExpectations(t)
}

func TestUserHandler_handleDeleteUser(t *testing.T) {
	mockService := new(MockUserService)
	handler := storeHandler.NewUserHandler(mockService)

	mockService.On("DeleteUser", mock.Anything, int64(3)).Return(nil).Once()
	mockService.On("DeleteUser", mock.Anything, int64(4)).Return(user.ErrHasOrders).Once()

	rr := serve(handler, http.MethodDelete, "/users/3", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(handler, http.MethodDelete, "/users/4", "", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	mockService.AssertExpectations(t)
}
