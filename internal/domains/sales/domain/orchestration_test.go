package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestration_HappyPath(t *testing.T) {
	o := NewOrchestration()
	require.NoError(t, o.Advance(StateValidating))
	require.NoError(t, o.Advance(StateWriting))
	require.NoError(t, o.Advance(StateCommitted))

	assert.True(t, o.State().Terminal())
	assert.Equal(t, []State{StateStarted, StateValidating, StateWriting, StateCommitted}, o.History())
}

func TestOrchestration_RejectsIllegalTransitions(t *testing.T) {
	o := NewOrchestration()
	require.ErrorIs(t, o.Advance(StateCommitted), ErrInvalidTransition)
	require.ErrorIs(t, o.Advance(StateWriting), ErrInvalidTransition)
	assert.Equal(t, StateStarted, o.State())

	require.NoError(t, o.Advance(StateValidating))
	require.NoError(t, o.Advance(StateWriting))
	require.NoError(t, o.Advance(StateCommitted))
	require.ErrorIs(t, o.Advance(StateRolledBack), ErrInvalidTransition)
}

func TestOrchestration_Fail(t *testing.T) {
	cases := map[string]struct {
		steps []State
		want  []State
	}{
		"before validation": {
			want: []State{StateStarted, StateValidationFailed, StateRolledBack},
		},
		"during validation": {
			steps: []State{StateValidating},
			want:  []State{StateStarted, StateValidating, StateValidationFailed, StateRolledBack},
		},
		"during write": {
			steps: []State{StateValidating, StateWriting},
			want:  []State{StateStarted, StateValidating, StateWriting, StateWriteFailed, StateRolledBack},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			o := NewOrchestration()
			for _, step := range tc.steps {
				require.NoError(t, o.Advance(step))
			}
			o.Fail()
			assert.Equal(t, tc.want, o.History())
			assert.Equal(t, StateRolledBack, o.State())
		})
	}
}

func TestOrchestration_FailAfterCommitIsNoop(t *testing.T) {
	o := NewOrchestration()
	require.NoError(t, o.Advance(StateValidating))
	require.NoError(t, o.Advance(StateWriting))
	require.NoError(t, o.Advance(StateCommitted))
	o.Fail()
	assert.Equal(t, StateCommitted, o.State())
}
