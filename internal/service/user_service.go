package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studywat/internal/domain"
	"studywat/internal/repository"
)

// UserService maneja registro y login con password.
type UserService struct {
	logger *zap.Logger
	repo   repository.UserRepository
}

var (
	ErrUserInvalidInput     = errors.New("user invalid input")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserServiceNotConfig = errors.New("user service not configured")
)

func NewUserService(logger *zap.Logger, repo repository.UserRepository) *UserService {
	return &UserService{logger: logger, repo: repo}
}

// Register crea un usuario nuevo con hash bcrypt del password.
func (s *UserService) Register(ctx context.Context, email, password, displayName string) (domain.User, error) {
	if s == nil || s.repo == nil {
		return domain.User{}, ErrUserServiceNotConfig
	}
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if email == "" || !strings.Contains(email, "@") || len(password) < 8 {
		return domain.User{}, ErrUserInvalidInput
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return domain.User{}, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login valida credenciales y devuelve el usuario.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	if s == nil || s.repo == nil {
		return domain.User{}, ErrUserServiceNotConfig
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID devuelve el usuario por id.
func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	if s == nil || s.repo == nil {
		return domain.User{}, ErrUserServiceNotConfig
	}
	return s.repo.GetByID(ctx, id)
}
