// Package auth содержит регистрацию, вход и проверку токенов доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nesi-market/nesi/internal/authz"
	"github.com/nesi-market/nesi/internal/lib/jwt"
	"github.com/nesi-market/nesi/internal/lib/password"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

var (
	// ErrUserExists пользователь с таким username или email уже есть.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials неверный логин или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserBlocked учётная запись заблокирована модератором.
	ErrUserBlocked = errors.New("user is blocked")
	// ErrInvalidRole при регистрации допустимы только customer и executor.
	ErrInvalidRole = errors.New("invalid role")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя по имени или repository.ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUser возвращает пользователя по UID или repository.ErrNotFound.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// PasswordHasher хеширует и сверяет пароли.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Notifier записывает уведомление пользователю.
type Notifier interface {
	Create(ctx context.Context, n models.NewNotification) (*models.Notification, error)
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	jwtMaker jwt.Maker
	notifier Notifier
	log      *slog.Logger
}

// New создаёт новый экземпляр Service.
func New(users UserRepository, hasher PasswordHasher, jwtMaker jwt.Maker, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		notifier: notifier,
		log:      log,
	}
}

// Register создаёт пользователя с ролью customer или executor и возвращает его UID.
func (s *Service) Register(ctx context.Context, email, username, rawPassword string, role models.Role) (string, error) {
	const op = "auth.Register"
	if role != models.RoleCustomer && role != models.RoleExecutor {
		return "", fmt.Errorf("%s: %w: %q", op, ErrInvalidRole, role)
	}

	hashed, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
		Level:        models.DefaultLevel,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_id", uid), slog.String("role", string(role)))
	return uid, nil
}

// Login проверяет пароль, выпускает токен и записывает уведомление о входе.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.hasher.Compare(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Blocked {
		return "", nil, fmt.Errorf("%s: %w", op, ErrUserBlocked)
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Username, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.notifier.Create(ctx, models.NewNotification{
		UserID:  user.UUID,
		Type:    models.NotificationLogin,
		Title:   "Вход в аккаунт",
		Message: "Выполнен вход в ваш аккаунт",
	}); err != nil {
		s.log.Warn("failed to record login notification", slog.String("user_id", user.UUID), sl.Err(err))
	}
	return token, user, nil
}

// ValidateToken проверяет JWT и возвращает вызывающего.
func (s *Service) ValidateToken(token string) (authz.Caller, error) {
	const op = "auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return authz.Caller{}, fmt.Errorf("%s: %w", op, authz.ErrUnauthorized)
	}
	return authz.Caller{
		UserID:   claims.UserUID,
		Username: claims.Username,
		Role:     models.Role(claims.Role),
	}, nil
}

// CheckActive проверяет, что владелец токена существует и не заблокирован.
// Блокировка действует сразу, не дожидаясь истечения выданных токенов.
func (s *Service) CheckActive(ctx context.Context, userUID string) error {
	const op = "auth.CheckActive"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, authz.ErrUnauthorized)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Blocked {
		return fmt.Errorf("%s: %w: %w", op, authz.ErrForbidden, ErrUserBlocked)
	}
	return nil
}
