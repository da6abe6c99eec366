package eligibility

import "github.com/nesi-market/nesi/internal/config"

// LimitPolicy определяет лимит одновременных задач для уровня исполнителя.
// Реализация обязана возвращать значение не меньше 1.
type LimitPolicy interface {
	LimitForLevel(level int) int
}

// TableLimits лимиты по таблице уровней, для уровней вне таблицы действует Default.
type TableLimits struct {
	Levels  map[int]int
	Default int
}

// NewTableLimits строит политику из секции eligibility конфига.
func NewTableLimits(cfg config.Eligibility) TableLimits {
	levels := make(map[int]int, len(cfg.LevelLimits))
	for level, limit := range cfg.LevelLimits {
		levels[level] = limit
	}
	return TableLimits{Levels: levels, Default: cfg.DefaultTaskLimit}
}

// LimitForLevel возвращает лимит уровня, не меньше 1.
func (t TableLimits) LimitForLevel(level int) int {
	limit, ok := t.Levels[level]
	if !ok {
		limit = t.Default
	}
	if limit < 1 {
		return 1
	}
	return limit
}
