// Package task управляет наймом исполнителей на задачи.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/services/eligibility"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

const cacheTTL = time.Hour

var (
	// ErrNotFound задача не найдена.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden задача принадлежит другому заказчику.
	ErrForbidden = errors.New("task belongs to another customer")
	// ErrTaskNotOpen задача уже не принимает исполнителей.
	ErrTaskNotOpen = errors.New("task is not open")
	// ErrNotExecutor указанный пользователь не исполнитель.
	ErrNotExecutor = errors.New("user is not an executor")
	// ErrLimitReached исполнитель достиг лимита активных задач.
	ErrLimitReached = errors.New("executor task limit reached")
)

// LimitError отказ в найме из-за лимита, Reason готов для ответа клиенту.
type LimitError struct {
	Reason string
}

func (e *LimitError) Error() string {
	return ErrLimitReached.Error() + ": " + e.Reason
}

// Is позволяет проверять отказ через errors.Is(err, ErrLimitReached).
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitReached
}

// Repository хранилище задач и пользователей.
type Repository interface {
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	AssignExecutor(ctx context.Context, taskID int64, executorUID string, limit int) (bool, error)
}

// EligibilityChecker проверяет допуск исполнителя к новой задаче.
type EligibilityChecker interface {
	CanTakeMoreTasks(ctx context.Context, executorUID string) (eligibility.Eligibility, error)
}

// Notifier записывает уведомление пользователю.
type Notifier interface {
	Create(ctx context.Context, n models.NewNotification) (*models.Notification, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service операции над задачами.
type Service struct {
	repo     Repository
	checker  EligibilityChecker
	notifier Notifier
	cache    Cache
	log      *slog.Logger
}

// New создаёт Service.
func New(repo Repository, checker EligibilityChecker, notifier Notifier, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		checker:  checker,
		notifier: notifier,
		cache:    cache,
		log:      log,
	}
}

func cacheKey(id int64) string {
	return "task:" + strconv.FormatInt(id, 10)
}

// Get возвращает задачу, используя кеш или репозиторий.
func (s *Service) Get(ctx context.Context, id int64) (*models.Task, error) {
	const op = "task.Get"
	key := cacheKey(id)

	var cached models.Task
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read task from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, t, cacheTTL); err != nil {
		s.log.Warn("failed to cache task", slog.String("key", key), sl.Err(err))
	}
	return t, nil
}

// Hire назначает исполнителя на открытую задачу заказчика.
// Задача проверяется по хранилищу, а не по кешу.
func (s *Service) Hire(ctx context.Context, customerUID string, taskID int64, executorUID string) (*models.Task, error) {
	const op = "task.Hire"

	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t.CustomerID != customerUID {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if t.Status != models.TaskOpen {
		return nil, fmt.Errorf("%s: %w", op, ErrTaskNotOpen)
	}

	executor, err := s.repo.GetUser(ctx, executorUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotExecutor)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if executor.Role != models.RoleExecutor || executor.Blocked {
		return nil, fmt.Errorf("%s: %w", op, ErrNotExecutor)
	}

	verdict, err := s.checker.CanTakeMoreTasks(ctx, executorUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !verdict.CanTake {
		return nil, fmt.Errorf("%s: %w", op, &LimitError{Reason: verdict.Reason})
	}

	// лимит перепроверяется под блокировкой строки исполнителя
	ok, err := s.repo.AssignExecutor(ctx, taskID, executorUID, verdict.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			return nil, fmt.Errorf("%s: %w", op, &LimitError{Reason: eligibility.LimitReason(verdict.Limit)})
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrTaskNotOpen)
	}

	if err := s.cache.Invalidate(ctx, cacheKey(taskID)); err != nil {
		s.log.Warn("failed to invalidate task cache", slog.Int64("task_id", taskID), sl.Err(err))
	}

	link := fmt.Sprintf("/tasks/%d", taskID)
	if _, err := s.notifier.Create(ctx, models.NewNotification{
		UserID:  executorUID,
		Type:    models.NotificationHire,
		Title:   "Вас выбрали исполнителем",
		Message: fmt.Sprintf("Заказчик выбрал вас исполнителем задачи «%s»", t.Title),
		Link:    &link,
	}); err != nil {
		s.log.Warn("failed to notify hired executor", slog.Int64("task_id", taskID), sl.Err(err))
	}

	s.log.Info("executor hired",
		slog.Int64("task_id", taskID), slog.String("executor_id", executorUID))

	t.ExecutorID = &executorUID
	t.Status = models.TaskInProgress
	return t, nil
}
