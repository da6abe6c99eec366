// Package minprice реализует HTTP-обработчик изменения минимальной цены подкатегории.
// Доступен только администратору.
package minprice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/services/category"
)

// Request тело запроса изменения цены.
type Request struct {
	MinPrice *int64 `json:"min_price" validate:"required,gte=0"`
}

// Service меняет минимальную цену и сбрасывает кеш категорий.
type Service interface {
	UpdateMinPrice(ctx context.Context, subcategoryID, minPrice int64) error
}

// Handler обрабатывает запросы на изменение минимальной цены.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить минимальную цену подкатегории
// @Tags Categories
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path int true "ID подкатегории"
// @Param request body Request true "Новая минимальная цена"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Подкатегория не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/subcategories/{id}/min-price [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.category.minprice"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Warn("invalid subcategory id", slog.String("id", chi.URLParam(r, "id")))
		response.Fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.Invalid(w, r, verrs)
			return
		}
		response.Fail(w, r, http.StatusBadRequest, "invalid request")
		return
	}

	err = h.service.UpdateMinPrice(r.Context(), id, *req.MinPrice)
	switch {
	case errors.Is(err, category.ErrNotFound):
		response.Fail(w, r, http.StatusNotFound, "subcategory not found")
		return
	case errors.Is(err, category.ErrInvalidPrice):
		response.Fail(w, r, http.StatusBadRequest, "min price must not be negative")
		return
	case err != nil:
		log.Error("failed to update min price", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("min price updated", slog.Int64("subcategory_id", id), slog.Int64("min_price", *req.MinPrice))
	response.OK(w, r, map[string]any{
		"subcategory_id": id,
		"min_price":      *req.MinPrice,
	})
}
