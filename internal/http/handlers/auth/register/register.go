// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Заказчик или исполнитель передаёт email, username, пароль и роль.
// Учётные записи администраторов заводятся вне API.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/services/auth"
)

// Request структура входных данных для регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=customer executor"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, email, username, password string, role models.Role) (string, error)
}

// Handler обрабатывает HTTP-запросы на регистрацию.
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
// @Summary Регистрация пользователя
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Warn("validation failed", sl.Err(err))
			response.Invalid(w, r, verrs)
			return
		}
		log.Error("validation failed", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request")
		return
	}

	uid, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password, models.Role(req.Role))
	switch {
	case errors.Is(err, auth.ErrUserExists):
		log.Warn("user already exists", slog.String("username", req.Username))
		response.Fail(w, r, http.StatusConflict, "user already exists")
		return
	case errors.Is(err, auth.ErrInvalidRole):
		response.Fail(w, r, http.StatusBadRequest, "invalid role")
		return
	case err != nil:
		log.Error("failed to register user", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("user registered", slog.String("user_id", uid))
	response.OK(w, r, map[string]any{
		"user_id":  uid,
		"username": req.Username,
		"role":     req.Role,
	})
}
