// Package entitlement вычисляет право пользователя на платные функции.
//
// Resolve чистая функция над снимком профиля, текущим временем и числом
// оставшихся дней пробного периода, которое считает сервер. Признаки доступа
// объединяются через ИЛИ, поэтому противоречивые флаги профиля не приводят к
// ошибке: достаточно любого из них.
package entitlement

import (
	"time"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

// DefaultTrialDays число дней, показываемое пока профиль не загружен.
const DefaultTrialDays = 30

// Status результат вычисления доступа. Не сохраняется и пересчитывается при каждом чтении.
type Status struct {
	Status               models.PlanStatus `json:"status"`
	PlanType             models.PlanType   `json:"plan_type"`
	DaysRemaining        int               `json:"days_remaining"`
	IsLifetime           bool              `json:"is_lifetime"`
	IsPro                bool              `json:"is_pro"`
	IsSubscriptionActive bool              `json:"is_subscription_active"`
	IsTrialActive        bool              `json:"is_trial_active"`
	HasFullAccess        bool              `json:"has_full_access"`
	TrialEnd             *time.Time        `json:"trial_end,omitempty"`
	SubscriptionEnd      *time.Time        `json:"subscription_end,omitempty"`
	// Provisional выставлен, когда статус построен без профиля.
	Provisional bool `json:"provisional"`
}

// Resolve вычисляет статус доступа для профиля p в момент now.
//
// daysRemaining приходит с сервера и не пересчитывается из дат профиля.
// Для p == nil возвращается разрешающее значение по умолчанию, пригодное
// только для отрисовки, см. CanMutate.
func Resolve(p *models.Profile, now time.Time, daysRemaining int) Status {
	if p == nil {
		return Provisional()
	}

	isLifetime := p.Lifetime()
	isSubscriptionActive := p.SubscriptionEnd != nil && p.SubscriptionEnd.After(now)
	isPro := isLifetime || p.IsPro || p.Plan == models.PlanPro
	isTrialActive := p.TrialEnd != nil && p.TrialEnd.After(now)

	st := Status{
		DaysRemaining:        max(daysRemaining, 0),
		IsLifetime:           isLifetime,
		IsPro:                isPro,
		IsSubscriptionActive: isSubscriptionActive,
		IsTrialActive:        isTrialActive,
		HasFullAccess:        isLifetime || isSubscriptionActive || isPro || isTrialActive,
		TrialEnd:             p.TrialEnd,
		SubscriptionEnd:      p.SubscriptionEnd,
	}

	switch {
	case isLifetime:
		st.PlanType = models.PlanTypeLifetime
	case isSubscriptionActive || p.Plan == models.PlanPro:
		st.PlanType = models.PlanTypeMonthly
	default:
		st.PlanType = models.PlanTypeFree
	}

	switch {
	case isLifetime || isPro || isSubscriptionActive:
		st.Status = models.StatusPro
	case isTrialActive:
		st.Status = models.StatusTrial
	default:
		st.Status = models.StatusExpired
	}
	return st
}

// Provisional значение, отдаваемое пока профиль ещё не получен.
func Provisional() Status {
	return Status{
		Status:        models.StatusTrial,
		PlanType:      models.PlanTypeFree,
		DaysRemaining: DefaultTrialDays,
		IsTrialActive: true,
		HasFullAccess: true,
		Provisional:   true,
	}
}

// Locked сообщает, что платные области должны быть закрыты.
func (s Status) Locked() bool {
	return !s.HasFullAccess
}

// CanMutate разрешает изменяющие операции только по реальному профилю.
func (s Status) CanMutate() bool {
	return s.HasFullAccess && !s.Provisional
}
