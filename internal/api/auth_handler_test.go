package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type stubTokenIssuer struct {
	token string
	err   error
}

func (s *stubTokenIssuer) GenerateToken(userID string, roles []string) (string, error) {
	return s.token, s.err
}

type AuthHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockAuthService
	tokens      *stubTokenIssuer
}

func (s *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.mockService = new(MockAuthService)
	s.tokens = &stubTokenIssuer{token: "signed-token"}
	handler := NewAuthHandler(s.mockService, s.tokens)

	s.router.POST("/auth/register", handler.Register)
	s.router.POST("/auth/login", handler.Login)
}

func TestAuthHandler(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) postJSON(path string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthHandlerTestSuite) TestRegister_Success() {
	req := dto.RegisterRequest{Email: "jane@acme.example.com", Name: "Jane Doe", Password: "s3cret-pass"}
	s.mockService.On("Register", mock.Anything, req).Return(&domain.User{
		ID:     "u1",
		Email:  "jane@acme.example.com",
		Name:   "Jane Doe",
		Roles:  []string{"user"},
		Active: true,
	}, nil)

	w := s.postJSON("/auth/register", req)

	s.Equal(http.StatusCreated, w.Code)

	var resp dto.UserResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("u1", resp.ID)
	s.Equal([]string{"user"}, resp.Roles)
}

func (s *AuthHandlerTestSuite) TestRegister_ShortPassword() {
	w := s.postJSON("/auth/register", dto.RegisterRequest{
		Email:    "jane@acme.example.com",
		Name:     "Jane Doe",
		Password: "short",
	})

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockService.AssertNotCalled(s.T(), "Register", mock.Anything, mock.Anything)
}

func (s *AuthHandlerTestSuite) TestRegister_EmailTaken() {
	req := dto.RegisterRequest{Email: "jane@acme.example.com", Name: "Jane Doe", Password: "s3cret-pass"}
	s.mockService.On("Register", mock.Anything, req).Return(nil, service.ErrEmailAlreadyExists)

	w := s.postJSON("/auth/register", req)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *AuthHandlerTestSuite) TestLogin_Success() {
	s.mockService.On("Login", mock.Anything, "jane@acme.example.com", "s3cret-pass").
		Return(&domain.User{ID: "u1", Email: "jane@acme.example.com", Roles: []string{"user"}}, nil)

	w := s.postJSON("/auth/login", dto.LoginRequest{Email: "jane@acme.example.com", Password: "s3cret-pass"})

	s.Equal(http.StatusOK, w.Code)

	var resp dto.LoginResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("signed-token", resp.Token)
	s.Equal("u1", resp.User.ID)
}

func (s *AuthHandlerTestSuite) TestLogin_BadCredentials() {
	s.mockService.On("Login", mock.Anything, "jane@acme.example.com", "wrong-pass").
		Return(nil, service.ErrInvalidCredentials)

	w := s.postJSON("/auth/login", dto.LoginRequest{Email: "jane@acme.example.com", Password: "wrong-pass"})

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerTestSuite) TestLogin_TokenSigningFailure() {
	s.tokens.err = errors.New("no signing key")
	s.mockService.On("Login", mock.Anything, "jane@acme.example.com", "s3cret-pass").
		Return(&domain.User{ID: "u1"}, nil)

	w := s.postJSON("/auth/login", dto.LoginRequest{Email: "jane@acme.example.com", Password: "s3cret-pass"})

	s.Equal(http.StatusInternalServerError, w.Code)
}
