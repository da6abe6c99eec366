package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nesi-market/nesi/internal/cache"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

var (
	// ErrNotFound подкатегория не найдена.
	ErrNotFound = errors.New("subcategory not found")
	// ErrInvalidPrice отрицательная минимальная цена.
	ErrInvalidPrice = errors.New("min price must not be negative")
)

// Store изменяет справочник категорий.
type Store interface {
	UpdateSubcategoryMinPrice(ctx context.Context, subcategoryID, minPrice int64) error
}

// Broadcaster рассылает сигнал сброса кеша другим процессам.
type Broadcaster interface {
	Publish(ctx context.Context, channel, payload string) error
}

// Service справочник категорий: чтение через кеш и изменение цен.
type Service struct {
	cache       *Cache
	store       Store
	broadcaster Broadcaster
	instanceID  string
	log         *slog.Logger
}

// NewService создаёт Service. broadcaster может быть nil, тогда сброс только локальный.
func NewService(c *Cache, store Store, broadcaster Broadcaster, log *slog.Logger) *Service {
	return &Service{
		cache:       c,
		store:       store,
		broadcaster: broadcaster,
		instanceID:  uuid.NewString(),
		log:         log,
	}
}

// Categories возвращает дерево категорий.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.cache.Get(ctx)
}

// UpdateMinPrice меняет минимальную цену подкатегории и сбрасывает кеш всех процессов.
func (s *Service) UpdateMinPrice(ctx context.Context, subcategoryID, minPrice int64) error {
	const op = "category.UpdateMinPrice"
	if minPrice < 0 {
		return fmt.Errorf("%s: %w", op, ErrInvalidPrice)
	}

	if err := s.store.UpdateSubcategoryMinPrice(ctx, subcategoryID, minPrice); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.Invalidate(ctx)

	s.log.Info("subcategory min price updated",
		slog.Int64("subcategory_id", subcategoryID), slog.Int64("min_price", minPrice))
	return nil
}

// Invalidate сбрасывает локальный кеш и оповещает остальные процессы.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Invalidate()
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, cache.CategoryInvalidationChannel, s.instanceID); err != nil {
		s.log.Warn("failed to broadcast category invalidation", sl.Err(err))
	}
}

// HandleInvalidation обрабатывает сигнал сброса из канала. Свои сигналы пропускаются.
func (s *Service) HandleInvalidation(payload string) {
	if payload == s.instanceID {
		return
	}
	s.cache.Invalidate()
	s.log.Debug("category cache invalidated by peer", slog.String("peer", payload))
}
