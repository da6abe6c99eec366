// Package digest по расписанию рассылает напоминания о непрочитанных уведомлениях.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
)

// Repository выборка пользователей для дайджеста.
type Repository interface {
	FindUnreadDigests(ctx context.Context, olderThan time.Time) ([]models.UnreadDigest, error)
}

// Publisher публикует события для воркеров доставки.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service формирует дайджесты.
type Service struct {
	repo      Repository
	publisher Publisher
	minAge    time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// New создаёт Service. В дайджест попадают пользователи с непрочитанными уведомлениями старше minAge.
func New(repo Repository, publisher Publisher, minAge time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		minAge:    minAge,
		now:       time.Now,
		log:       log,
	}
}

// RunOnce публикует по одному дайджесту на пользователя и возвращает число опубликованных.
// Ошибка публикации одного дайджеста не прерывает остальные.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	const op = "digest.RunOnce"

	digests, err := s.repo.FindUnreadDigests(ctx, s.now().Add(-s.minAge))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(digests) == 0 {
		s.log.Info("no users with stale unread notifications")
		return 0, nil
	}

	published := 0
	for _, d := range digests {
		event := models.DigestEvent{UserID: d.UserID, Unread: d.Unread}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingDigest, event); err != nil {
			s.log.Error("failed to publish digest", slog.String("user_id", d.UserID), sl.Err(err))
			continue
		}
		published++
	}
	s.log.Info("digests published", slog.Int("count", published), slog.Int("found", len(digests)))
	return published, nil
}

// Scheduler запускает RunOnce по cron-расписанию.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	log     *slog.Logger
}

// NewScheduler регистрирует задачу по расписанию schedule в стандартном пятипольном формате.
func NewScheduler(ctx context.Context, service *Service, schedule string, log *slog.Logger) (*Scheduler, error) {
	const op = "digest.NewScheduler"

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := service.RunOnce(ctx); err != nil {
			log.Error("digest run failed", sl.Err(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Scheduler{cron: c, service: service, log: log}, nil
}

// Start запускает планировщик и блокируется до отмены ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.Info("digest scheduler started", slog.Int("jobs", len(s.cron.Entries())))
	<-ctx.Done()
	s.Stop()
}

// Stop останавливает планировщик и ждёт завершения запущенной задачи.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("digest scheduler stopped")
}
