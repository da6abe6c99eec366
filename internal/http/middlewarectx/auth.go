// Package middlewarectx содержит HTTP middleware аутентификации, проверки ролей
// и ограничения частоты запросов.
//
// JWTMiddleware проверяет JWT токен из заголовка Authorization и кладёт
// вызывающего в контекст запроса. Обработчики получают его через CallerFrom.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/authz"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// CallerKey ключ вызывающего в контексте.
const CallerKey Key = "caller"

// TokenValidator проверяет токен доступа.
type TokenValidator interface {
	ValidateToken(token string) (authz.Caller, error)
}

// ActiveChecker проверяет, что учётная запись вызывающего активна.
type ActiveChecker interface {
	CheckActive(ctx context.Context, userUID string) error
}

// WithCaller возвращает контекст с вызывающим.
func WithCaller(ctx context.Context, caller authz.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// CallerFrom достаёт вызывающего из контекста.
func CallerFrom(ctx context.Context) (authz.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(authz.Caller)
	return caller, ok && caller.UserID != ""
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// При ошибке отвечает 401 и не вызывает следующий обработчик.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			caller, err := validator.ValidateToken(tokenStr)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// ActiveUserMiddleware отклоняет запросы удалённых и заблокированных пользователей.
// Монтируется после JWTMiddleware.
func ActiveUserMiddleware(checker ActiveChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.ActiveUserMiddleware"

			caller, ok := CallerFrom(r.Context())
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			err := checker.CheckActive(r.Context(), caller.UserID)
			switch {
			case errors.Is(err, authz.ErrForbidden):
				log.Warn("blocked user rejected",
					slog.String("op", op), slog.String("user_id", caller.UserID))
				response.Fail(w, r, http.StatusForbidden, "user is blocked")
				return
			case errors.Is(err, authz.ErrUnauthorized):
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
				return
			case err != nil:
				log.Error("failed to check user", slog.String("op", op), sl.Err(err))
				response.Fail(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
