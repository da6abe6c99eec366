package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nesi-market/nesi/internal/models"
)

const userColumns = `uid, email, username, password_hash, role, level, balance,
	frozen_balance, blocked, telegram_chat_id, created_at`

// CreateUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"

	level := user.Level
	if level < models.DefaultLevel {
		level = models.DefaultLevel
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role, level, telegram_chat_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, string(user.Role), level, user.TelegramChatID,
	).Scan(&newID); err != nil {
		return "", mapError(op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetExecutorLevel возвращает уровень исполнителя. ErrNotFound, если исполнителя нет.
func (s *Storage) GetExecutorLevel(ctx context.Context, executorUID string) (int, error) {
	const op = "storage.GetExecutorLevel"

	var level int
	err := s.DB.QueryRowContext(ctx,
		`SELECT level FROM users WHERE uid = $1 AND role = 'executor'`, executorUID,
	).Scan(&level)
	if err != nil {
		return 0, mapError(op, err)
	}
	return level, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var role string
	var chatID sql.NullInt64
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.Level,
		&u.Balance, &u.FrozenBalance, &u.Blocked, &chatID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if chatID.Valid {
		u.TelegramChatID = &chatID.Int64
	}
	return u, nil
}
