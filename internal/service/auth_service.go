package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/SergeiKhy/shortlink/internal/identity"
	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/SergeiKhy/shortlink/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordCost = bcrypt.DefaultCost
	tokenType    = "Bearer"
)

// AuthService регистрация, вход, обновление токенов и "кто я".
// Состояния между запросами не хранит.
type AuthService interface {
	Register(ctx context.Context, input *models.RegisterInput) (*models.TokenPair, error)
	Login(ctx context.Context, input *models.LoginInput) (*models.TokenPair, error)
	LoginWithEmail(ctx context.Context, input *models.EmailLoginInput) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	CurrentUser(ctx context.Context) (*models.CurrentUser, error)
}

type authService struct {
	userRepo repository.UserRepository
	codec    *token.Codec
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, codec *token.Codec, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		codec:    codec,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, input *models.RegisterInput) (*models.TokenPair, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || input.Password == "" || email == "" {
		return nil, fmt.Errorf("%w: username, password and email are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	// Имя зарезервировано под identity.Anonymous
	if username == identity.AnonymousUsername {
		return nil, fmt.Errorf("%w: username is reserved", ErrInvalidInput)
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: username already taken", ErrConflict)
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		Roles:        []string{models.RoleUser},
		PrimaryRole:  models.RoleUser,
		Enabled:      true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Параллельная регистрация успела раньше, проверки выше это не ловят
		if errors.Is(err, repository.ErrUserExists) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))

	return s.issuePair(user)
}

func (s *authService) Login(ctx context.Context, input *models.LoginInput) (*models.TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}

	if err := s.checkPassword(user, input.Password); err != nil {
		return nil, err
	}

	return s.issuePair(user)
}

func (s *authService) LoginWithEmail(ctx context.Context, input *models.EmailLoginInput) (*models.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}

	if err := s.checkPassword(user, input.Password); err != nil {
		return nil, err
	}

	return s.issuePair(user)
}

// Refresh выпускает новую пару. Старый refresh токен не отзывается и
// действует до своего истечения.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, ok := s.codec.VerifyRefresh(refreshToken)
	if !ok {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	user, err := s.userRepo.GetByUsername(ctx, claims.Username())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}

	return s.issuePair(user)
}

// CurrentUser находит пользователя по личности из ctx и выпускает для него
// новый access токен, хотя сам вызов только читает данные.
func (s *authService) CurrentUser(ctx context.Context) (*models.CurrentUser, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no user logged in", ErrUnauthorized)
	}

	user, err := s.userRepo.GetByUsername(ctx, id.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	return &models.CurrentUser{
		Username: user.Username,
		Role:     user.PrimaryRole,
		Roles:    user.Roles,
		Token:    pair.AccessToken,
	}, nil
}

func (s *authService) checkPassword(user *models.User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if !user.Enabled {
		return fmt.Errorf("%w: account disabled", ErrUnauthorized)
	}
	return nil
}

// issuePair единственное место, где выпускаются токены
func (s *authService) issuePair(user *models.User) (*models.TokenPair, error) {
	pair, err := s.codec.IssuePair(user.Username, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    tokenType,
		ExpiresIn:    int64(s.codec.AccessTTL() / time.Second),
	}, nil
}
