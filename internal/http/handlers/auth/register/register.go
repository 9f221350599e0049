// Package register реализует HTTP-обработчик регистрации.
//
// Новая учётная запись сразу получает пробный период.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authpb "github.com/magabrotheeeer/minigestor/internal/grpc/gen"
	"github.com/magabrotheeeer/minigestor/internal/http/response"
	"github.com/magabrotheeeer/minigestor/internal/lib/msisdn"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
)

// Request структура входных данных для регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20,mzphone"`
}

// Service описывает клиента сервиса авторизации.
type Service interface {
	Register(ctx context.Context, req *authpb.RegisterRequest) (*authpb.RegisterResponse, error)
}

// Handler обрабатывает HTTP-запросы для регистрации.
type Handler struct {
	log        *slog.Logger
	authClient Service
	validate   *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authClient Service) *Handler {
	v := validator.New()
	if err := msisdn.RegisterValidation(v); err != nil {
		panic(err)
	}
	return &Handler{
		log:        log,
		authClient: authClient,
		validate:   v,
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя и открывает пробный период.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные новой учетной записи"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
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
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	resp, err := h.authClient.Register(r.Context(), &authpb.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		switch status.Code(err) {
		case codes.AlreadyExists:
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("user already exists"))
		case codes.InvalidArgument:
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid registration data"))
		default:
			log.Error("registration failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("user registered", slog.String("username", req.Username), slog.String("user_uid", resp.UserUID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_uid": resp.UserUID,
		"username": req.Username,
	}))
}
