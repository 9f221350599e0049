// Package gate закрывает платные области и действия по статусу доступа.
//
// Проверка выполняется дважды: Intercept до открытия формы ввода и Enforce в
// точке выполнения изменяющего действия. Обход первой проверки не позволяет
// выполнить действие.
package gate

import (
	"errors"
	"fmt"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
)

var (
	// ErrLocked доступ к платным функциям закрыт.
	ErrLocked = errors.New("feature locked")
	// ErrNotReady статус построен без профиля, изменения запрещены.
	ErrNotReady = errors.New("profile not ready")
	// ErrUnknownAction действие не зарегистрировано.
	ErrUnknownAction = errors.New("unknown action")
)

// Action защищённое действие, открывающее форму ввода.
type Action string

const (
	AddWallet           Action = "add_wallet"
	AddTransaction      Action = "add_transaction"
	AddCategory         Action = "add_category"
	AddGoal             Action = "add_goal"
	AddGoalContribution Action = "add_goal_contribution"
	AddDebt             Action = "add_debt"
	AddDebtPayment      Action = "add_debt_payment"
)

var actions = map[Action]struct{}{
	AddWallet:           {},
	AddTransaction:      {},
	AddCategory:         {},
	AddGoal:             {},
	AddGoalContribution: {},
	AddDebt:             {},
	AddDebtPayment:      {},
}

// ParseAction проверяет имя действия.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Notice неблокирующее уведомление с переходом к оплате.
type Notice struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	CTA       string `json:"cta"`
	CTATarget string `json:"cta_target"`
}

// LockedNotice уведомление, которое показывается вместо формы ввода.
func LockedNotice() *Notice {
	return &Notice{
		Title:     "Recurso bloqueado",
		Message:   "Ative o Plano Pro para desbloquear",
		CTA:       "Ativar Plano Pro",
		CTATarget: entitlement.CheckoutPath,
	}
}

// Decision результат перехвата действия.
type Decision struct {
	Action  Action  `json:"action"`
	Allowed bool    `json:"allowed"`
	Notice  *Notice `json:"notice,omitempty"`
}

// Intercept решает, можно ли открыть форму для action.
func Intercept(st entitlement.Status, action Action) Decision {
	if st.Locked() {
		return Decision{Action: action, Allowed: false, Notice: LockedNotice()}
	}
	return Decision{Action: action, Allowed: true}
}

// Enforce проверка в точке выполнения изменения. Предварительный статус не
// даёт права на запись, даже если он разрешающий.
func Enforce(st entitlement.Status) error {
	if st.Provisional {
		return ErrNotReady
	}
	if !st.CanMutate() {
		return ErrLocked
	}
	return nil
}
