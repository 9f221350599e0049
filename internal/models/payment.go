package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method способ мобильной оплаты.
type Method string

const (
	MethodMpesa Method = "mpesa"
	MethodEmola Method = "emola"
)

// Valid проверяет, поддерживается ли способ оплаты.
func (m Method) Valid() bool {
	return m == MethodMpesa || m == MethodEmola
}

// PaymentIntent описание одной попытки оплаты. Не сохраняется.
type PaymentIntent struct {
	UserID   string          `json:"user_id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Method   Method          `json:"method"`
	Amount   decimal.Decimal `json:"amount"`
	PlanType PlanType        `json:"plan_type"`
}

// Reconciliation запись о списании, после которого не удалось выдать доступ.
type Reconciliation struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Email      string          `json:"email"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	Method     Method          `json:"method"`
	PlanType   PlanType        `json:"plan_type"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}
