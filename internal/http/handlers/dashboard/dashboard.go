// Package dashboard отдаёт главную панель пользователя.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/minigestor/internal/http/response"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/services/ledger"
)

// Service собирает панель.
type Service interface {
	Dashboard(ctx context.Context, userUID string) (*ledger.Dashboard, error)
}

// Handler обработчик главной панели.
type Handler struct {
	log *slog.Logger
	svc Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, svc Service) *Handler {
	return &Handler{log: log, svc: svc}
}

// ServeHTTP godoc
// @Summary Главная панель
// @Description Баланс, доходы и расходы за месяц, предупреждения и области кошельков, операций, целей и долгов. При закрытом доступе области помечаются locked.
// @Tags Dashboard
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /dashboard [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	d, err := h.svc.Dashboard(r.Context(), userUID)
	if err != nil {
		log.Error("failed to build dashboard", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	render.JSON(w, r, response.OKWithData(d))
}
