package eligibility

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nesi-market/nesi/internal/config"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CountActiveTasks(ctx context.Context, executorUID string) (int, error) {
	args := m.Called(ctx, executorUID)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetExecutorLevel(ctx context.Context, executorUID string) (int, error) {
	args := m.Called(ctx, executorUID)
	return args.Int(0), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testLimits = TableLimits{Levels: map[int]int{1: 1, 2: 3, 3: 5}, Default: 2}

func TestCanTakeMoreTasks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		level    int
		levelErr error
		active   int
		want     Eligibility
	}{
		{
			name:   "below limit",
			level:  2,
			active: 2,
			want:   Eligibility{ActiveTasks: 2, Limit: 3, Level: 2, CanTake: true},
		},
		{
			name:   "at limit",
			level:  2,
			active: 3,
			want:   Eligibility{ActiveTasks: 3, Limit: 3, Level: 2, CanTake: false, Reason: "достигнут лимит активных задач: 3"},
		},
		{
			name:   "level outside table uses default",
			level:  7,
			active: 1,
			want:   Eligibility{ActiveTasks: 1, Limit: 2, Level: 7, CanTake: true},
		},
		{
			name:     "unknown executor treated as level 1 without tasks",
			levelErr: repository.ErrNotFound,
			active:   0,
			want:     Eligibility{ActiveTasks: 0, Limit: 1, Level: 1, CanTake: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetExecutorLevel", ctx, "exec").Return(tt.level, tt.levelErr)
			repo.On("CountActiveTasks", ctx, "exec").Return(tt.active, nil)

			checker := New(repo, testLimits, newTestLogger())
			got, err := checker.CanTakeMoreTasks(ctx, "exec")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.ActiveTasks < got.Limit, got.CanTake)
			repo.AssertExpectations(t)
		})
	}
}

func TestCanTakeMoreTasks_StoreErrors(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("db down")

	t.Run("level lookup fails", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetExecutorLevel", ctx, "exec").Return(0, dbErr)

		_, err := New(repo, testLimits, newTestLogger()).CanTakeMoreTasks(ctx, "exec")
		assert.ErrorIs(t, err, dbErr)
		repo.AssertNotCalled(t, "CountActiveTasks", mock.Anything, mock.Anything)
	})

	t.Run("count fails", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetExecutorLevel", ctx, "exec").Return(1, nil)
		repo.On("CountActiveTasks", ctx, "exec").Return(0, dbErr)

		_, err := New(repo, testLimits, newTestLogger()).CanTakeMoreTasks(ctx, "exec")
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestHasActiveTask(t *testing.T) {
	ctx := context.Background()

	for _, active := range []int{0, 1, 4} {
		repo := new(RepoMock)
		repo.On("GetExecutorLevel", ctx, "exec").Return(3, nil)
		repo.On("CountActiveTasks", ctx, "exec").Return(active, nil)

		busy, err := New(repo, testLimits, newTestLogger()).HasActiveTask(ctx, "exec")
		require.NoError(t, err)
		assert.Equal(t, active > 0, busy, "active=%d", active)
	}
}

func TestTableLimits(t *testing.T) {
	limits := NewTableLimits(config.Eligibility{
		LevelLimits:      map[int]int{1: 1, 2: 0, 3: 4},
		DefaultTaskLimit: -5,
	})

	tests := []struct {
		level int
		want  int
	}{
		{level: 1, want: 1},
		{level: 2, want: 1},
		{level: 3, want: 4},
		{level: 9, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, limits.LimitForLevel(tt.level), "level %d", tt.level)
	}
}
