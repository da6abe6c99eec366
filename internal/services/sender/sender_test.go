package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to []string, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type MockTelegram struct {
	mock.Mock
}

func (m *MockTelegram) SendMessage(chatID int64, text string) error {
	return m.Called(chatID, text).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandleCreated_EmailAndTelegram(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	mailer := new(MockMailer)
	tg := new(MockTelegram)

	chatID := int64(99)
	link := "/tasks/5"
	repo.On("GetUser", ctx, "u1").Return(&models.User{UUID: "u1", Email: "u1@example.com", TelegramChatID: &chatID}, nil)
	mailer.On("Send", []string{"u1@example.com"}, "Вас наняли", "Задача <5>\n\n/tasks/5").Return(nil)
	tg.On("SendMessage", chatID, "<b>Вас наняли</b>\nЗадача &lt;5&gt;").Return(nil)

	body := mustJSON(t, models.NotificationEvent{
		NotificationID: 1, UserID: "u1", Type: models.NotificationHire,
		Title: "Вас наняли", Message: "Задача <5>", Link: &link,
	})
	err := New(repo, mailer, tg, newTestLogger()).HandleCreated(ctx, body)
	require.NoError(t, err)
	mailer.AssertExpectations(t)
	tg.AssertExpectations(t)
}

func TestHandleCreated_NoTelegramWithoutChat(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	mailer := new(MockMailer)
	tg := new(MockTelegram)

	repo.On("GetUser", ctx, "u1").Return(&models.User{UUID: "u1", Email: "u1@example.com"}, nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	body := mustJSON(t, models.NotificationEvent{UserID: "u1", Title: "t", Message: "m"})
	require.NoError(t, New(repo, mailer, tg, newTestLogger()).HandleCreated(ctx, body))
	tg.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestHandleCreated_TelegramFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	mailer := new(MockMailer)
	tg := new(MockTelegram)

	chatID := int64(7)
	repo.On("GetUser", ctx, "u1").Return(&models.User{UUID: "u1", Email: "e", TelegramChatID: &chatID}, nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tg.On("SendMessage", chatID, mock.Anything).Return(errors.New("bot blocked"))

	body := mustJSON(t, models.NotificationEvent{UserID: "u1", Title: "t"})
	assert.NoError(t, New(repo, mailer, tg, newTestLogger()).HandleCreated(ctx, body))
}

func TestHandleCreated_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		body     []byte
		setup    func(r *MockRepository, m *MockMailer)
		wantDrop bool
		wantErr  bool
	}{
		{
			name:     "malformed body",
			body:     []byte("{not json"),
			setup:    func(*MockRepository, *MockMailer) {},
			wantDrop: true,
		},
		{
			name:     "missing user id",
			body:     []byte(`{"title":"t"}`),
			setup:    func(*MockRepository, *MockMailer) {},
			wantDrop: true,
		},
		{
			name: "user deleted",
			body: []byte(`{"user_id":"u1","title":"t"}`),
			setup: func(r *MockRepository, _ *MockMailer) {
				r.On("GetUser", ctx, "u1").Return(nil, repository.ErrNotFound)
			},
			wantDrop: true,
		},
		{
			name: "store failure is retried",
			body: []byte(`{"user_id":"u1","title":"t"}`),
			setup: func(r *MockRepository, _ *MockMailer) {
				r.On("GetUser", ctx, "u1").Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
		{
			name: "smtp failure is retried",
			body: []byte(`{"user_id":"u1","title":"t"}`),
			setup: func(r *MockRepository, m *MockMailer) {
				r.On("GetUser", ctx, "u1").Return(&models.User{UUID: "u1", Email: "e"}, nil)
				m.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
			},
			wantErr: true,
		},
		{
			name: "blocked user skipped",
			body: []byte(`{"user_id":"u1","title":"t"}`),
			setup: func(r *MockRepository, _ *MockMailer) {
				r.On("GetUser", ctx, "u1").Return(&models.User{UUID: "u1", Email: "e", Blocked: true}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			mailer := new(MockMailer)
			tt.setup(repo, mailer)

			err := New(repo, mailer, nil, newTestLogger()).HandleCreated(ctx, tt.body)
			switch {
			case tt.wantDrop:
				assert.ErrorIs(t, err, rabbitmq.ErrDrop)
			case tt.wantErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, rabbitmq.ErrDrop)
			default:
				assert.NoError(t, err)
				mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandleDigest(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	mailer := new(MockMailer)

	repo.On("GetUser", ctx, "u1").Return(&models.User{UUID: "u1", Email: "u1@example.com"}, nil)
	mailer.On("Send", []string{"u1@example.com"}, "Непрочитанные уведомления на NESI",
		"У вас 4 непрочитанных уведомлений.").Return(nil)

	svc := New(repo, mailer, nil, newTestLogger())
	require.NoError(t, svc.HandleDigest(ctx, mustJSON(t, models.DigestEvent{UserID: "u1", Unread: 4})))
	mailer.AssertExpectations(t)

	err := svc.HandleDigest(ctx, mustJSON(t, models.DigestEvent{UserID: "u1", Unread: 0}))
	assert.ErrorIs(t, err, rabbitmq.ErrDrop)
}
