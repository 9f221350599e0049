package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttempt_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []State
		wantErr bool
	}{
		{name: "confirmed", path: []State{StateValidating, StateSubmitting, StateConfirmed}},
		{name: "declined", path: []State{StateValidating, StateSubmitting, StateDeclined}},
		{name: "failed", path: []State{StateValidating, StateSubmitting, StateFailed}},
		{name: "validation back to idle", path: []State{StateValidating, StateIdle}},
		{name: "skip validation", path: []State{StateSubmitting}, wantErr: true},
		{name: "confirm without submit", path: []State{StateValidating, StateConfirmed}, wantErr: true},
		{name: "resume after decline", path: []State{StateValidating, StateSubmitting, StateDeclined, StateSubmitting}, wantErr: true},
		{name: "terminal back to idle", path: []State{StateValidating, StateSubmitting, StateFailed, StateIdle}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAttempt()
			var err error
			for _, s := range tt.path {
				if err = a.transition(s); err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, append([]State{StateIdle}, tt.path...), a.History())
		})
	}
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateConfirmed.Terminal())
	assert.True(t, StateDeclined.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateSubmitting.Terminal())
}

func TestAttempt_HistoryIsCopy(t *testing.T) {
	a := newAttempt()
	h := a.History()
	h[0] = StateFailed
	assert.Equal(t, StateIdle, a.History()[0])
}

func TestAttempt_MustTransitionPanicsOnIllegalStep(t *testing.T) {
	a := newAttempt()
	a.mustTransition(StateValidating)

	assert.NotPanics(t, func() { a.mustTransition(StateSubmitting) })
	assert.Panics(t, func() { a.mustTransition(StateIdle) })
	assert.Equal(t, StateSubmitting, a.State())
}
