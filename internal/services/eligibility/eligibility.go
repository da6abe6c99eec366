// Package eligibility решает, может ли исполнитель взять ещё одну задачу.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

// Repository источник данных об исполнителях и их задачах.
type Repository interface {
	// CountActiveTasks считает задачи исполнителя в статусе in_progress.
	CountActiveTasks(ctx context.Context, executorUID string) (int, error)
	// GetExecutorLevel возвращает уровень исполнителя или repository.ErrNotFound.
	GetExecutorLevel(ctx context.Context, executorUID string) (int, error)
}

// Eligibility результат проверки исполнителя.
type Eligibility struct {
	ActiveTasks int    `json:"active_tasks"`
	Limit       int    `json:"limit"`
	Level       int    `json:"level"`
	CanTake     bool   `json:"can_take"`
	Reason      string `json:"reason,omitempty"`
}

// Checker вычисляет допуск исполнителя к новым задачам. Состояния не хранит.
type Checker struct {
	repo   Repository
	limits LimitPolicy
	log    *slog.Logger
}

// New создаёт Checker.
func New(repo Repository, limits LimitPolicy, log *slog.Logger) *Checker {
	return &Checker{
		repo:   repo,
		limits: limits,
		log:    log,
	}
}

// LimitReason текст отказа для исчерпанного лимита.
func LimitReason(limit int) string {
	return fmt.Sprintf("достигнут лимит активных задач: %d", limit)
}

// Evaluate считает активные задачи и лимит уровня.
// Неизвестный исполнитель считается исполнителем уровня 1 без задач.
func (c *Checker) Evaluate(ctx context.Context, executorUID string) (Eligibility, error) {
	const op = "eligibility.Evaluate"

	level, err := c.repo.GetExecutorLevel(ctx, executorUID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		level = models.DefaultLevel
	case err != nil:
		return Eligibility{}, fmt.Errorf("%s: %w", op, err)
	}

	active, err := c.repo.CountActiveTasks(ctx, executorUID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("%s: %w", op, err)
	}

	limit := c.limits.LimitForLevel(level)
	res := Eligibility{
		ActiveTasks: active,
		Limit:       limit,
		Level:       level,
		CanTake:     active < limit,
	}
	if !res.CanTake {
		res.Reason = LimitReason(limit)
	}

	c.log.Debug("executor eligibility evaluated",
		slog.String("executor_id", executorUID),
		slog.Int("active", active),
		slog.Int("limit", limit),
	)
	return res, nil
}

// CanTakeMoreTasks сообщает, может ли исполнитель взять ещё одну задачу.
func (c *Checker) CanTakeMoreTasks(ctx context.Context, executorUID string) (Eligibility, error) {
	return c.Evaluate(ctx, executorUID)
}

// HasActiveTask сообщает, есть ли у исполнителя хотя бы одна задача в работе.
//
// Deprecated: используйте CanTakeMoreTasks, он учитывает лимит уровня.
func (c *Checker) HasActiveTask(ctx context.Context, executorUID string) (bool, error) {
	res, err := c.Evaluate(ctx, executorUID)
	if err != nil {
		return false, err
	}
	return res.ActiveTasks > 0, nil
}
