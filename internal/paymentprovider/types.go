package paymentprovider

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

var (
	// ErrNotConfigured не заданы учётные данные шлюза.
	ErrNotConfigured = errors.New("payment gateway credentials not configured")
	// ErrInvalidRequest параметры платежа не прошли проверку.
	ErrInvalidRequest = errors.New("invalid charge request")
	// ErrTokenExchange не удалось получить токен доступа.
	ErrTokenExchange = errors.New("payment gateway token exchange failed")
	// ErrTransport шлюз недоступен или ответил ошибкой сервера.
	ErrTransport = errors.New("payment gateway transport failure")
	// ErrMalformedResponse ответ шлюза не удалось разобрать.
	ErrMalformedResponse = errors.New("malformed payment gateway response")
)

// ChargeRequest запрос на списание с мобильного кошелька.
type ChargeRequest struct {
	Method    models.Method
	Amount    decimal.Decimal
	Phone     string
	Reference string
}

// ChargeResult результат списания. Отказ шлюза не является ошибкой.
type ChargeResult struct {
	Reference  string         `json:"reference"`
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	StatusCode int            `json:"status_code"`
	Raw        map[string]any `json:"-"`
}
