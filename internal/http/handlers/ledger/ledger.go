// Package ledger содержит HTTP-обработчики кошельков, операций, категорий,
// целей и долгов.
//
// Запись проходит через ledger.Service, который повторно проверяет доступ.
// Закрытый доступ отдаётся как 403 с уведомлением о переходе к оплате.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/minigestor/internal/http/response"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/models"
	ledgersvc "github.com/magabrotheeeer/minigestor/internal/services/ledger"
	"github.com/magabrotheeeer/minigestor/internal/storage/repository"
)

// Service операции над финансовыми записями пользователя.
type Service interface {
	CreateWallet(ctx context.Context, userUID string, w models.Wallet) (*models.Wallet, error)
	ListWallets(ctx context.Context, userUID string) ([]models.Wallet, error)
	CreateTransaction(ctx context.Context, userUID string, t models.Transaction) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userUID string, limit int) ([]models.Transaction, error)
	CreateCategory(ctx context.Context, userUID string, c models.Category) (*models.Category, error)
	ListCategories(ctx context.Context, userUID string) ([]models.Category, error)
	CreateGoal(ctx context.Context, userUID string, g models.Goal) (*models.Goal, error)
	ListGoals(ctx context.Context, userUID string) ([]models.Goal, error)
	AddGoalContribution(ctx context.Context, userUID string, c models.GoalContribution) (*models.GoalContribution, error)
	CompleteGoal(ctx context.Context, userUID, goalID string) error
	CreateDebt(ctx context.Context, userUID string, d models.Debt) (*models.Debt, error)
	ListDebts(ctx context.Context, userUID string) ([]models.Debt, error)
	AddDebtPayment(ctx context.Context, userUID string, p models.DebtPayment) (*models.DebtPayment, error)
}

// Handler обработчики финансовых записей.
type Handler struct {
	log *slog.Logger
	svc Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, svc Service) *Handler {
	return &Handler{
		log: log,
		svc: svc,
	}
}

// Routes монтирует обработчики на роутер.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/wallets", h.ListWallets)
	r.Post("/wallets", h.CreateWallet)
	r.Get("/transactions", h.ListTransactions)
	r.Post("/transactions", h.CreateTransaction)
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Get("/goals", h.ListGoals)
	r.Post("/goals", h.CreateGoal)
	r.Post("/goals/{id}/contributions", h.AddGoalContribution)
	r.Post("/goals/{id}/complete", h.CompleteGoal)
	r.Get("/debts", h.ListDebts)
	r.Post("/debts", h.CreateDebt)
	r.Post("/debts/{id}/payments", h.AddDebtPayment)
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// create разбирает тело запроса и передаёт его в сервис. Ответ 201 с созданной записью.
func create[In, Out any](h *Handler, w http.ResponseWriter, r *http.Request, op string,
	prepare func(*In), fn func(ctx context.Context, userUID string, in In) (Out, error)) {
	log := h.logger(r, op)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var in In
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if prepare != nil {
		prepare(&in)
	}

	out, err := fn(r.Context(), userUID, in)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(out))
}

func list[Out any](h *Handler, w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, userUID string) ([]Out, error)) {
	log := h.logger(r, op)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	items, err := fn(r.Context(), userUID)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	if items == nil {
		items = []Out{}
	}
	render.JSON(w, r, response.OKWithData(items))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, gate.ErrLocked):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, middlewarectx.Locked{
			Status: response.StatusError,
			Error:  gate.ErrLocked.Error(),
			Notice: gate.LockedNotice(),
		})
	case errors.Is(err, gate.ErrNotReady):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("entitlement unavailable, try again"))
	case errors.Is(err, ledgersvc.ErrInvalidInput), errors.Is(err, repository.ErrAmountExceedsRemaining):
		log.Info("invalid input", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
	case errors.Is(err, repository.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
	default:
		log.Error("ledger operation failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
	}
}

// CreateWallet godoc
// @Summary Создать кошелёк
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Param request body models.Wallet true "Кошелёк"
// @Success 201 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Failure 422 {object} response.ErrorResponse
// @Router /wallets [post]
// @Security BearerAuth
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, "handlers.ledger.CreateWallet", nil, h.svc.CreateWallet)
}

// ListWallets godoc
// @Summary Кошельки пользователя
// @Tags Ledger
// @Produce  json
// @Success 200 {object} response.Response
// @Router /wallets [get]
// @Security BearerAuth
func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.ledger.ListWallets", h.svc.ListWallets)
}

// CreateTransaction godoc
// @Summary Добавить операцию
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Param request body models.Transaction true "Операция"
// @Success 201 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Failure 422 {object} response.ErrorResponse
// @Router /transactions [post]
// @Security BearerAuth
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, "handlers.ledger.CreateTransaction", nil, h.svc.CreateTransaction)
}

// ListTransactions godoc
// @Summary Последние операции
// @Tags Ledger
// @Produce  json
// @Param limit query int false "Количество записей"
// @Success 200 {object} response.Response
// @Router /transactions [get]
// @Security BearerAuth
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list(h, w, r, "handlers.ledger.ListTransactions", func(ctx context.Context, userUID string) ([]models.Transaction, error) {
		return h.svc.ListTransactions(ctx, userUID, limit)
	})
}

// CreateCategory godoc
// @Summary Создать категорию
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Param request body models.Category true "Категория"
// @Success 201 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Router /categories [post]
// @Security BearerAuth
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, "handlers.ledger.CreateCategory", nil, h.svc.CreateCategory)
}

// ListCategories godoc
// @Summary Категории пользователя
// @Tags Ledger
// @Produce  json
// @Success 200 {object} response.Response
// @Router /categories [get]
// @Security BearerAuth
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.ledger.ListCategories", h.svc.ListCategories)
}

// CreateGoal godoc
// @Summary Создать цель накопления
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Param request body models.Goal true "Цель"
// @Success 201 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Router /goals [post]
// @Security BearerAuth
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, "handlers.ledger.CreateGoal", nil, h.svc.CreateGoal)
}

// ListGoals godoc
// @Summary Цели пользователя
// @Tags Ledger
// @Produce  json
// @Success 200 {object} response.Response
// @Router /goals [get]
// @Security BearerAuth
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.ledger.ListGoals", h.svc.ListGoals)
}

// AddGoalContribution godoc
// @Summary Взнос в цель
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Param id path string true "ID цели"
// @Param request body models.GoalContribution true "Взнос"
// @Success 201 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Failure 404 {object} response.ErrorResponse
// @Router /goals/{id}/contributions [post]
// @Security BearerAuth
func (h *Handler) AddGoalContribution(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")
	create(h, w, r, "handlers.ledger.AddGoalContribution",
		func(c *models.GoalContribution) { c.GoalID = goalID },
		h.svc.AddGoalContribution)
}

// CompleteGoal godoc
// @Summary Завершить цель
// @Tags Ledger
// @Produce  json
// @Param id path string true "ID цели"
// @Success 200 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Failure 404 {object} response.ErrorResponse
// @Router /goals/{id}/complete [post]
// @Security BearerAuth
func (h *Handler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ledger.CompleteGoal")

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	goalID := chi.URLParam(r, "id")
	if err := h.svc.CompleteGoal(r.Context(), userUID, goalID); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]string{
		"id":     goalID,
		"status": string(models.GoalCompleted),
	}))
}

// CreateDebt godoc
// @Summary Добавить долг
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Param request body models.Debt true "Долг"
// @Success 201 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Failure 422 {object} response.ErrorResponse
// @Router /debts [post]
// @Security BearerAuth
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, "handlers.ledger.CreateDebt", nil, h.svc.CreateDebt)
}

// ListDebts godoc
// @Summary Долги пользователя
// @Tags Ledger
// @Produce  json
// @Success 200 {object} response.Response
// @Router /debts [get]
// @Security BearerAuth
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.ledger.ListDebts", h.svc.ListDebts)
}

// AddDebtPayment godoc
// @Summary Платёж по долгу
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Param id path string true "ID долга"
// @Param request body models.DebtPayment true "Платёж"
// @Success 201 {object} response.Response
// @Failure 403 {object} middlewarectx.Locked "Доступ закрыт"
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse "Сумма больше остатка"
// @Router /debts/{id}/payments [post]
// @Security BearerAuth
func (h *Handler) AddDebtPayment(w http.ResponseWriter, r *http.Request) {
	debtID := chi.URLParam(r, "id")
	create(h, w, r, "handlers.ledger.AddDebtPayment",
		func(p *models.DebtPayment) { p.DebtID = debtID },
		h.svc.AddDebtPayment)
}
