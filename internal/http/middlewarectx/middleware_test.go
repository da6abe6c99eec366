package middlewarectx_test

import (
	"context"
	"errors"
	"fmt"
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

type ValidatorMock struct {
	mock.Mock
}

func (m *ValidatorMock) ValidateToken(token string) (authz.Caller, error) {
	args := m.Called(token)
	return args.Get(0).(authz.Caller), args.Error(1)
}

type ActiveCheckerMock struct {
	mock.Mock
}

func (m *ActiveCheckerMock) CheckActive(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	caller := authz.Caller{UserID: "u1", Username: "bob", Role: models.RoleExecutor}
	validator := new(ValidatorMock)
	validator.On("ValidateToken", "validtoken").Return(caller, nil)
	validator.On("ValidateToken", "expired").Return(authz.Caller{}, errors.New("token expired"))

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "missing Authorization header", authHeader: "", wantStatusCode: http.StatusUnauthorized},
		{name: "invalid prefix", authHeader: "Basic sometoken", wantStatusCode: http.StatusUnauthorized},
		{name: "expired token", authHeader: "Bearer expired", wantStatusCode: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer validtoken", wantStatusCode: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := middlewarectx.CallerFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, caller, got)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(validator, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		caller     *authz.Caller
		roles      []models.Role
		wantStatus int
	}{
		{name: "no caller", roles: []models.Role{models.RoleCustomer}, wantStatus: http.StatusUnauthorized},
		{name: "matching role", caller: &authz.Caller{UserID: "u", Role: models.RoleCustomer}, roles: []models.Role{models.RoleCustomer}, wantStatus: http.StatusOK},
		{name: "admin passes", caller: &authz.Caller{UserID: "a", Role: models.RoleAdmin}, roles: []models.Role{models.RoleCustomer}, wantStatus: http.StatusOK},
		{name: "wrong role", caller: &authz.Caller{UserID: "u", Role: models.RoleExecutor}, roles: []models.Role{models.RoleCustomer}, wantStatus: http.StatusForbidden},
		{name: "any authenticated", caller: &authz.Caller{UserID: "u", Role: models.RoleExecutor}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.caller != nil {
				req = req.WithContext(middlewarectx.WithCaller(req.Context(), *tt.caller))
			}
			rr := httptest.NewRecorder()
			middlewarectx.RequireRole(newNoopLogger(), tt.roles...)(next).ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(next)

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(middlewarectx.WithCaller(req.Context(), authz.Caller{UserID: userID, Role: models.RoleCustomer}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("u1"))
	assert.Equal(t, http.StatusOK, send("u1"))
	assert.Equal(t, http.StatusTooManyRequests, send("u1"))
	assert.Equal(t, http.StatusOK, send("u2"), "buckets are per caller")
}

func TestRateLimitMiddleware_AnonymousByIP(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(next)

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5001"), "port is not part of the key")
	assert.Equal(t, http.StatusOK, send("10.0.0.2:5000"))
}

func TestActiveUserMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		withCaller bool
		checkErr   error
		wantStatus int
	}{
		{name: "active", withCaller: true, wantStatus: http.StatusOK},
		{name: "blocked", withCaller: true, checkErr: fmt.Errorf("auth.CheckActive: %w", authz.ErrForbidden), wantStatus: http.StatusForbidden},
		{name: "deleted", withCaller: true, checkErr: fmt.Errorf("auth.CheckActive: %w", authz.ErrUnauthorized), wantStatus: http.StatusUnauthorized},
		{name: "store failure", withCaller: true, checkErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
		{name: "no caller", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(ActiveCheckerMock)
			checker.On("CheckActive", mock.Anything, "u1").Return(tt.checkErr)

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.ActiveUserMiddleware(checker, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.withCaller {
				req = req.WithContext(middlewarectx.WithCaller(req.Context(), authz.Caller{UserID: "u1", Role: models.RoleExecutor}))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			if !tt.withCaller {
				checker.AssertNotCalled(t, "CheckActive", mock.Anything, mock.Anything)
			}
		})
	}
}
