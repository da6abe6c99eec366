// Package busy реализует устаревший HTTP-обработчик проверки занятости исполнителя.
// Новые клиенты используют /executors/{id}/eligibility.
package busy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/nesi-market/nesi/internal/authz"
	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
)

// Service сообщает, есть ли у исполнителя задача в работе.
type Service interface {
	HasActiveTask(ctx context.Context, executorUID string) (bool, error)
}

// Handler обрабатывает запросы на проверку занятости.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Занятость исполнителя
// @Tags Executors
// @Security BearerAuth
// @Produce  json
// @Param id path string true "UUID исполнителя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /executors/{id}/busy [get]
// @Deprecated
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.executor.busy"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	caller, _ := middlewarectx.CallerFrom(r.Context())
	if err := authz.RequireSelfOr(caller, id, models.RoleExecutor); err != nil {
		middlewarectx.WriteAuthzError(w, r, log, err)
		return
	}

	busy, err := h.service.HasActiveTask(r.Context(), id)
	if err != nil {
		log.Error("failed to check executor tasks", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	response.OK(w, r, map[string]any{
		"busy": busy,
	})
}
