package digest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindUnreadDigests(ctx context.Context, olderThan time.Time) ([]models.UnreadDigest, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UnreadDigest), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo Repository, pub Publisher) *Service {
	svc := New(repo, pub, 24*time.Hour, newTestLogger())
	svc.now = func() time.Time { return time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestRunOnce_PublishesPerUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	pub := new(MockPublisher)

	cutoff := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.On("FindUnreadDigests", ctx, cutoff).Return([]models.UnreadDigest{
		{UserID: "u1", Unread: 3},
		{UserID: "u2", Unread: 1},
		{UserID: "u3", Unread: 8},
	}, nil)
	pub.On("Publish", ctx, rabbitmq.RoutingDigest, models.DigestEvent{UserID: "u1", Unread: 3}).Return(nil)
	pub.On("Publish", ctx, rabbitmq.RoutingDigest, models.DigestEvent{UserID: "u2", Unread: 1}).Return(errors.New("broker down"))
	pub.On("Publish", ctx, rabbitmq.RoutingDigest, models.DigestEvent{UserID: "u3", Unread: 8}).Return(nil)

	n, err := newTestService(repo, pub).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	pub.AssertNumberOfCalls(t, "Publish", 3)
}

func TestRunOnce_Empty(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	pub := new(MockPublisher)
	repo.On("FindUnreadDigests", ctx, mock.Anything).Return([]models.UnreadDigest{}, nil)

	n, err := newTestService(repo, pub).RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOnce_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("FindUnreadDigests", ctx, mock.Anything).Return(nil, errors.New("db down"))

	_, err := newTestService(repo, new(MockPublisher)).RunOnce(ctx)
	assert.Error(t, err)
}

func TestNewScheduler(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(new(MockRepository), new(MockPublisher))

	s, err := NewScheduler(ctx, svc, "0 9 * * *", newTestLogger())
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 1)

	_, err = NewScheduler(ctx, svc, "every day", newTestLogger())
	assert.Error(t, err)
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	svc := newTestService(new(MockRepository), new(MockPublisher))
	ctx, cancel := context.WithCancel(context.Background())

	s, err := NewScheduler(ctx, svc, "0 9 * * *", newTestLogger())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
