package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, email, username, password string, role models.Role) (string, error) {
	args := m.Called(ctx, email, username, password, role)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRegisterHandler(t *testing.T) {
	valid := Request{Email: "bob@example.com", Username: "bob", Password: "secret1", Role: "executor"}

	tests := []struct {
		name       string
		body       any
		setupMock  func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, valid.Email, valid.Username, valid.Password, models.RoleExecutor).Return("uid-1", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"user_id":"uid-1"`,
		},
		{
			name:       "invalid json",
			body:       "not json",
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"invalid request body"`,
		},
		{
			name:       "admin role rejected by validation",
			body:       Request{Email: "a@example.com", Username: "admin", Password: "secret1", Role: "admin"},
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `field Role must be one of`,
		},
		{
			name:       "bad email",
			body:       Request{Email: "nope", Username: "bob", Password: "secret1", Role: "customer"},
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `field Email must be a valid email`,
		},
		{
			name: "duplicate",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", auth.ErrUserExists)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"error":"user already exists"`,
		},
		{
			name: "store failure",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
			rr := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
