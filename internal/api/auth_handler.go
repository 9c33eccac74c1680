package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/domain"
)

//go:generate mockery --name AuthService --output ../mocks
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// TokenIssuer signs access tokens for authenticated accounts. The auth
// middleware implements it.
type TokenIssuer interface {
	GenerateToken(userID string, roles []string) (string, error)
}

type AuthHandler struct {
	*BaseHandler
	service AuthService
	tokens  TokenIssuer
}

func NewAuthHandler(service AuthService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens}
}

// Register creates a user account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	user, err := h.service.Register(h.RequestCtx(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// Login exchanges credentials for a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	user, err := h.service.Login(h.RequestCtx(c), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Roles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	})
}
