// Package checkout реализует HTTP-обработчик оплаты тарифа Pro через
// мобильные кошельки M-Pesa и e-Mola.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/minigestor/internal/http/response"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/models"
	"github.com/magabrotheeeer/minigestor/internal/paymentprovider"
	checkoutsvc "github.com/magabrotheeeer/minigestor/internal/services/checkout"
)

// Тексты ответов показываются пользователю как есть.
const (
	msgMissingFields  = "Campos obrigatórios em falta"
	msgInvalidPhone   = "Número inválido para o método selecionado"
	msgInvalidPayment = "Dados de pagamento inválidos"
	msgNotConfigured  = "Configuração de pagamento em falta"
	msgNotReady       = "Perfil ainda não carregado. Tente novamente."
	msgGatewayAuth    = "Erro de autenticação com o gateway de pagamento"
	msgInProgress     = "Já existe um pagamento em curso"
	msgFailed         = "Erro ao processar pagamento"
	msgConfirmed      = "Pagamento confirmado! Plano Pro ativado com sucesso."
	msgReconcile      = "Pagamento realizado, mas erro ao atualizar perfil. Contacte o suporte."
	msgDeclined       = "Pagamento não concluído ou cancelado pelo usuário"
)

// Request данные формы оплаты.
type Request struct {
	Name     string          `json:"name" example:"Ana Machava"`
	Email    string          `json:"email" example:"ana@example.com"`
	Phone    string          `json:"phone" example:"841234567"`
	Method   models.Method   `json:"method" example:"mpesa"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"299"`
	PlanType models.PlanType `json:"plan_type" example:"lifetime"`
}

// Service описывает процесс подтверждения оплаты.
type Service interface {
	Checkout(ctx context.Context, userUID string, intent models.PaymentIntent) (*checkoutsvc.Result, error)
}

// Handler обрабатывает запросы на оплату.
type Handler struct {
	log      *slog.Logger
	checkout Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, checkout Service) *Handler {
	return &Handler{
		log:      log,
		checkout: checkout,
	}
}

// ServeHTTP godoc
// @Summary Оплата тарифа Pro
// @Description Списывает оплату с мобильного кошелька и активирует тариф. Отказ пользователя возвращается со статусом 200 и success=false.
// @Tags Checkout
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные оплаты"
// @Success 200 {object} response.Payment
// @Failure 400 {object} response.Payment "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.Payment "Оплата уже выполняется"
// @Failure 422 {object} response.Payment "Ошибка валидации"
// @Failure 500 {object} response.Payment
// @Failure 502 {object} response.Payment
// @Failure 503 {object} response.Payment "Шлюз не настроен или профиль не загружен"
// @Router /checkout [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Payment{Error: msgMissingFields})
		return
	}

	res, err := h.checkout.Checkout(r.Context(), userUID, models.PaymentIntent{
		UserID:   userUID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Method:   req.Method,
		Amount:   req.Amount,
		PlanType: req.PlanType,
	})
	if err != nil {
		code, msg := failure(err)
		if code >= http.StatusInternalServerError {
			log.Error("checkout failed", sl.Err(err))
		}
		resp := response.Payment{Error: msg}
		if res != nil {
			resp.Reference = res.Reference
		}
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, outcome(res))
}

func outcome(res *checkoutsvc.Result) response.Payment {
	switch res.Outcome {
	case checkoutsvc.OutcomeConfirmed:
		return response.Payment{
			Success:        true,
			PaymentSuccess: true,
			ProfileUpdated: true,
			Message:        msgConfirmed,
			Reference:      res.Reference,
		}
	case checkoutsvc.OutcomeReconciliationRequired:
		return response.Payment{
			Success:        true,
			PaymentSuccess: true,
			ProfileUpdated: false,
			Message:        msgReconcile,
			Reference:      res.Reference,
		}
	default:
		return response.Payment{
			Error:     msgDeclined,
			Reference: res.Reference,
		}
	}
}

func failure(err error) (int, string) {
	var verr *checkoutsvc.ValidationError
	switch {
	case errors.Is(err, checkoutsvc.ErrMissingField):
		return http.StatusUnprocessableEntity, msgMissingFields
	case errors.Is(err, checkoutsvc.ErrInvalidPhone):
		return http.StatusUnprocessableEntity, msgInvalidPhone
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, msgInvalidPayment
	case errors.Is(err, checkoutsvc.ErrCheckoutInProgress):
		return http.StatusConflict, msgInProgress
	case errors.Is(err, gate.ErrNotReady):
		return http.StatusServiceUnavailable, msgNotReady
	case errors.Is(err, paymentprovider.ErrNotConfigured):
		return http.StatusServiceUnavailable, msgNotConfigured
	case errors.Is(err, paymentprovider.ErrTokenExchange):
		return http.StatusBadGateway, msgGatewayAuth
	case errors.Is(err, paymentprovider.ErrTransport), errors.Is(err, paymentprovider.ErrMalformedResponse):
		return http.StatusBadGateway, msgFailed
	default:
		return http.StatusInternalServerError, msgFailed
	}
}
