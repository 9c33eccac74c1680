package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/repository"
	"github.com/authguard/authguard-api/pkg/logger"
)

// AuthService handles account registration and credential checks. Token
// minting stays with the auth middleware; this service only decides whether
// a caller may have one.
type AuthService struct {
	repo   repository.Repository
	logger *logger.Logger
}

func NewAuthService(repo repository.Repository, logger *logger.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		logger: logger,
	}
}

// Register creates a global user account with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	if _, err := s.repo.User().GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.User().Create(ctx, &domain.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Active:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))
	return user, nil
}

// Login verifies the credentials and returns the account. Lookup and
// password failures collapse into ErrInvalidCredentials so the response
// does not reveal which one failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrUserInactive
	}

	return user, nil
}
