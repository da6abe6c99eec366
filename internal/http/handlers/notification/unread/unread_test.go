package unread

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nesi-market/nesi/internal/authz"
	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CountUnread(ctx context.Context, userUID string) (int64, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(int64), args.Error(1)
}

func TestUnreadHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		count      int64
		err        error
		wantStatus int
		wantBody   string
	}{
		{"counted", 4, nil, http.StatusOK, `"unread":4`},
		{"zero", 0, nil, http.StatusOK, `"unread":0`},
		{"failure", 0, errors.New("db down"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("CountUnread", mock.Anything, "u-1").Return(tt.count, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
			req = req.WithContext(middlewarectx.WithCaller(req.Context(), authz.Caller{UserID: "u-1", Role: models.RoleCustomer}))

			rr := httptest.NewRecorder()
			New(log, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}
}
