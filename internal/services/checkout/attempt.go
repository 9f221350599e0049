package checkout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIllegalTransition переход между состояниями попытки не разрешён.
var ErrIllegalTransition = errors.New("illegal checkout state transition")

// State состояние одной попытки оплаты.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
	StateDeclined   State = "declined"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateIdle, StateSubmitting},
	StateSubmitting: {StateConfirmed, StateDeclined, StateFailed},
}

// Terminal сообщает, что попытка завершена. Следующая оплата начинается новой попыткой.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateDeclined || s == StateFailed
}

// Attempt одна попытка оплаты. Не сохраняется и не возобновляется.
type Attempt struct {
	ID        uuid.UUID
	Reference string
	state     State
	history   []State
}

func newAttempt() *Attempt {
	return &Attempt{
		ID:      uuid.New(),
		state:   StateIdle,
		history: []State{StateIdle},
	}
}

// State текущее состояние.
func (a *Attempt) State() State {
	return a.state
}

// History все пройденные состояния по порядку.
func (a *Attempt) History() []State {
	out := make([]State, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Attempt) transition(to State) error {
	for _, allowed := range transitions[a.state] {
		if allowed == to {
			a.state = to
			a.history = append(a.history, to)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.state, to)
}

// mustTransition переход, допустимость которого обеспечивает сам Checkout.
// Паника означает ошибку в таблице переходов, а не во входных данных.
func (a *Attempt) mustTransition(to State) {
	if err := a.transition(to); err != nil {
		panic(err)
	}
}
