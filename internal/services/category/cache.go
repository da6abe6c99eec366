// Package category отдаёт справочник категорий через кеш процесса
// и меняет минимальные цены подкатегорий.
package category

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nesi-market/nesi/internal/models"
)

// DefaultTTL время жизни снимка справочника.
const DefaultTTL = 10 * time.Minute

// Fetcher загружает полное дерево категорий из хранилища.
type Fetcher interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Cache снимок справочника категорий с временем загрузки.
// Одновременные промахи одного поколения выполняют одну загрузку.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	observe func(hit bool)

	mu         sync.Mutex
	snapshot   []models.Category
	fetchedAt  time.Time
	valid      bool
	generation uint64

	group singleflight.Group
}

// Option настраивает Cache.
type Option func(*Cache)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithObserver вызывается на каждое обращение с признаком попадания.
func WithObserver(observe func(hit bool)) Option {
	return func(c *Cache) { c.observe = observe }
}

// NewCache создаёт кеш. ttl <= 0 заменяется на DefaultTTL.
func NewCache(fetcher Fetcher, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		observe: func(bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get возвращает копию снимка, загружая его при отсутствии или устаревании.
// Ошибка загрузки не кешируется. Отмена ctx прекращает ожидание,
// но не загрузку, результат которой достанется остальным.
func (c *Cache) Get(ctx context.Context) ([]models.Category, error) {
	const op = "category.Cache.Get"

	c.mu.Lock()
	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		snapshot := c.snapshot
		c.mu.Unlock()
		c.observe(true)
		return cloneCategories(snapshot), nil
	}
	gen := c.generation
	c.mu.Unlock()
	c.observe(false)

	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		// загрузка общая для всех ожидающих, отмена одного вызывающего её не прерывает
		categories, err := c.fetcher.ListCategories(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generation == gen {
			c.snapshot = categories
			c.fetchedAt = c.now()
			c.valid = true
		}
		c.mu.Unlock()
		return categories, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%s: %w", op, res.Err)
		}
		return cloneCategories(res.Val.([]models.Category)), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// Invalidate сбрасывает снимок. Загрузки, начатые до вызова, его не восстановят.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.snapshot = nil
	c.valid = false
	c.mu.Unlock()
}

func cloneCategories(src []models.Category) []models.Category {
	if src == nil {
		return nil
	}
	dst := make([]models.Category, len(src))
	for i, c := range src {
		dst[i] = c
		if c.Subcategories != nil {
			dst[i].Subcategories = append(make([]models.Subcategory, 0, len(c.Subcategories)), c.Subcategories...)
		}
	}
	return dst
}
