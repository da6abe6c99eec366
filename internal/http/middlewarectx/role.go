package middlewarectx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/authz"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/models"
)

// RequireRole пропускает запрос, только если роль вызывающего входит в roles.
// Администратор проходит всегда.
func RequireRole(log *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := CallerFrom(r.Context())
			if err := authz.RequireAny(caller, roles...); err != nil {
				WriteAuthzError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteAuthzError отвечает 401 или 403 по ошибке политики доступа.
func WriteAuthzError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log = log.With(slog.String("request_id", middleware.GetReqID(r.Context())))
	if errors.Is(err, authz.ErrUnauthorized) {
		log.Warn("unauthenticated request")
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	log.Warn("access denied", slog.String("reason", err.Error()))
	response.Fail(w, r, http.StatusForbidden, "forbidden")
}
