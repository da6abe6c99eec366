// Package list реализует HTTP-обработчик получения справочника категорий.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
)

// Service отдаёт категории вместе с подкатегориями.
type Service interface {
	Categories(ctx context.Context) ([]models.Category, error)
}

// Handler обрабатывает запросы на получение категорий.
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
// @Summary Справочник категорий
// @Description Возвращает категории с подкатегориями и минимальными ценами.
// @Tags Categories
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /categories [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.category.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	categories, err := h.service.Categories(r.Context())
	if err != nil {
		log.Error("failed to load categories", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Debug("categories served", slog.Int("count", len(categories)))
	response.OK(w, r, map[string]any{
		"categories": categories,
	})
}
