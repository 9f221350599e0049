package models

import "time"

// Plan грубый флаг тарифа, хранимый в профиле.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// PlanStatus производный статус доступа. Никогда не сохраняется.
type PlanStatus string

const (
	StatusTrial   PlanStatus = "trial"
	StatusPro     PlanStatus = "pro"
	StatusExpired PlanStatus = "expired"
)

// PlanType вид тарифа: вычисленный для профиля или выбранный при оплате.
type PlanType string

const (
	PlanTypeLifetime PlanType = "lifetime"
	PlanTypeMonthly  PlanType = "monthly"
	PlanTypeFree     PlanType = "free"
)

// Profile профиль пользователя с флагами доступа и границами периодов.
//
// Флаги Plan, IsPro, IsLifetime и SubscriptionEnd выставляются независимо
// друг от друга и могут противоречить друг другу в исторических данных.
type Profile struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Phone           *string    `json:"phone,omitempty"`
	Currency        string     `json:"currency"`
	Plan            Plan       `json:"plan"`
	IsPro           bool       `json:"is_pro"`
	IsLifetime      *bool      `json:"is_lifetime,omitempty"`
	TrialStart      *time.Time `json:"trial_start,omitempty"`
	TrialEnd        *time.Time `json:"trial_end,omitempty"`
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Lifetime возвращает true только для явно выставленного is_lifetime.
func (p *Profile) Lifetime() bool {
	return p.IsLifetime != nil && *p.IsLifetime
}
