// Package login реализует HTTP-обработчик входа пользователя.
//
// При успехе возвращает JWT токен доступа, роль и идентификатор пользователя.
package login

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

// Request структура входных данных для авторизации.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы для авторизации.
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
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по имени и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Учётная запись заблокирована"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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
		response.Fail(w, r, http.StatusBadRequest, "invalid request")
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		log.Warn("invalid credentials", slog.String("username", req.Username))
		response.Fail(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	case errors.Is(err, auth.ErrUserBlocked):
		log.Warn("blocked user login attempt", slog.String("username", req.Username))
		response.Fail(w, r, http.StatusForbidden, "user is blocked")
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("login success", slog.String("username", req.Username))
	response.OK(w, r, map[string]any{
		"token":    token,
		"user_id":  user.UUID,
		"role":     user.Role,
		"username": user.Username,
	})
}
