package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scibind/internal/auth"
	"scibind/internal/errors"
	"scibind/internal/event"
	"scibind/internal/middleware"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockService) Login(ctx context.Context, username, password string) (*User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) GetUserByID(ctx context.Context, id uint64) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) IncreaseTokenVersion(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) TokenVersion(ctx context.Context, id uint64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockService) SelectEvents(ctx context.Context, id uint64, eventIDs []uint64) ([]event.Event, error) {
	args := m.Called(ctx, id, eventIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]event.Event), args.Error(1)
}

func (m *MockService) MyEvents(ctx context.Context, id uint64) ([]event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]event.Event), args.Error(1)
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth.SetSecret("test-secret")
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	return router
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/register", handler.Register)

	mockService.On("Register", mock.Anything, mock.MatchedBy(func(user *User) bool {
		return user.Username == "jdoe" &&
			user.Email == "john@example.com" &&
			user.Password == "password123"
	})).Return(nil).Run(func(args mock.Arguments) {
		user := args.Get(1).(*User)
		user.ID = 1
		user.CreatedAt = time.Now()
		user.UpdatedAt = time.Now()
	})

	w := postJSON(router, "/register", FormRegister{
		Username:  "jdoe",
		Email:     "john@example.com",
		Password:  "password123",
		FirstName: "John",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var response struct {
		AccessToken string   `json:"access_token"`
		User        SafeUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.AccessToken)
	assert.Equal(t, uint64(1), response.User.ID)
	assert.Equal(t, "John", response.User.FirstName)
	assert.NotContains(t, w.Body.String(), "password")
	mockService.AssertExpectations(t)
}

func TestRegister_InvalidInput(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/register", handler.Register)

	w := postJSON(router, "/register", struct{ Username string }{Username: "jdoe"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_InvalidEmail(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/register", handler.Register)

	w := postJSON(router, "/register", FormRegister{
		Username: "jdoe",
		Email:    "invalid-email",
		Password: "password123",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Email")
}

func TestRegister_ShortPassword(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/register", handler.Register)

	w := postJSON(router, "/register", FormRegister{
		Username: "jdoe",
		Email:    "john@example.com",
		Password: "123",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Password")
}

func TestRegister_Duplicate(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/register", handler.Register)

	mockService.On("Register", mock.Anything, mock.Anything).
		Return(errors.UnprocessableEntity("User already registered", nil))

	w := postJSON(router, "/register", FormRegister{
		Username: "jdoe",
		Email:    "john@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "User already registered")
}

func TestLogin_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/login", handler.Login)

	user := &User{ID: 1, Username: "jdoe", Email: "john@example.com", IsActive: true, TokenVersion: 3}
	mockService.On("Login", mock.Anything, "jdoe", "password123").Return(user, nil)

	w := postJSON(router, "/login", FormLogin{Username: "jdoe", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	token, err := auth.VerifyJWT(response.AccessToken)
	require.NoError(t, err)
	userID, version, err := auth.GetDataFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), userID)
	assert.Equal(t, 3, version)
	mockService.AssertExpectations(t)
}

func TestLogin_InvalidInput(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/login", handler.Login)

	w := postJSON(router, "/login", struct{ Username string }{Username: "jdoe"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLogin_WrongCredentials(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.POST("/login", handler.Login)

	mockService.On("Login", mock.Anything, "nobody", "password123").
		Return(nil, errors.Unauthorized("Invalid credentials", nil))

	w := postJSON(router, "/login", FormLogin{Username: "nobody", Password: "password123"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertExpectations(t)
}

func TestLogout_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)

	mockService.On("IncreaseTokenVersion", mock.Anything, uint64(7)).Return(nil)

	router.DELETE("/logout", func(c *gin.Context) {
		c.Set("user_id", uint64(7))
		handler.Logout(c)
	})

	req := httptest.NewRequest(http.MethodDelete, "/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestLogout_Failure(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)

	mockService.On("IncreaseTokenVersion", mock.Anything, uint64(7)).Return(assert.AnError)

	router.DELETE("/logout", func(c *gin.Context) {
		c.Set("user_id", uint64(7))
		handler.Logout(c)
	})

	req := httptest.NewRequest(http.MethodDelete, "/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetProfile_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)

	user := &User{ID: 1, Username: "jdoe", Email: "john@example.com", FirstName: "John", LastName: "Doe", IsActive: true}
	mockService.On("GetUserByID", mock.Anything, uint64(1)).Return(user, nil)

	router.GET("/profile", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		handler.GetProfile(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response SafeUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "jdoe", response.Username)
	assert.Equal(t, "Doe", response.LastName)
	mockService.AssertExpectations(t)
}

func TestGetProfile_NoUserID(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)
	router.GET("/profile", handler.GetProfile)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSelectEventsHandler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)

	chosen := []event.Event{{ID: 2, Name: "Codebusters", Division: "C", MaterialType: event.MaterialNone}}
	mockService.On("SelectEvents", mock.Anything, uint64(1), []uint64{2}).Return(chosen, nil)

	router.POST("/events/select", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		handler.SelectEvents(c)
	})

	w := postJSON(router, "/events/select", FormSelectEvents{EventIDs: []uint64{2}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Codebusters")

	w = postJSON(router, "/events/select", FormSelectEvents{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNumberOfCalls(t, "SelectEvents", 1)
}

func TestMyEvents_Empty(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler)

	mockService.On("MyEvents", mock.Anything, uint64(1)).Return([]event.Event{}, nil)

	router.GET("/events/mine", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		handler.MyEvents(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/events/mine", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}
