// Package entitlement отдаёт статус доступа пользователя и проверяет
// действия до открытия формы ввода.
package entitlement

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/minigestor/internal/http/response"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/metrics"
)

// StatusReader источник статуса доступа.
type StatusReader interface {
	Status(ctx context.Context, userUID string) (entitlement.Status, error)
}

// StatusView статус вместе с баннером тарифа.
type StatusView struct {
	Entitlement entitlement.Status     `json:"entitlement"`
	Banner      entitlement.BannerView `json:"banner"`
}

// Handler обработчики статуса доступа.
type Handler struct {
	log    *slog.Logger
	access StatusReader
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, access StatusReader) *Handler {
	return &Handler{log: log, access: access}
}

func (h *Handler) status(r *http.Request, op string) (entitlement.Status, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		return entitlement.Status{}, false
	}
	st, err := h.access.Status(r.Context(), userUID)
	if err != nil {
		log.Warn("entitlement unavailable, serving provisional status", sl.Err(err))
	}
	return st, true
}

// Status godoc
// @Summary Статус доступа
// @Description Возвращает статус тарифа пользователя и баннер. При недоступном хранилище отдаётся предварительный статус.
// @Tags Entitlement
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /entitlement [get]
// @Security BearerAuth
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, ok := h.status(r, "handlers.entitlement.status")
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	render.JSON(w, r, response.OKWithData(StatusView{
		Entitlement: st,
		Banner:      entitlement.Banner(st),
	}))
}

// Preflight godoc
// @Summary Проверка действия
// @Description Решает, можно ли открыть форму ввода для действия. Для закрытого доступа возвращает уведомление с переходом к оплате.
// @Tags Entitlement
// @Produce  json
// @Param action path string true "Действие" Enums(add_wallet, add_transaction, add_category, add_goal, add_goal_contribution, add_debt, add_debt_payment)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /actions/{action} [get]
// @Security BearerAuth
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	action, err := gate.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	st, ok := h.status(r, "handlers.entitlement.preflight")
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	decision := gate.Intercept(st, action)
	if !decision.Allowed {
		metrics.GateDenials.WithLabelValues(string(action), "intercept").Inc()
	}
	render.JSON(w, r, response.OKWithData(decision))
}
