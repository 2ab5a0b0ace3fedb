package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StatePlanned, StateFetching, true},
		{StateFetching, StateCanonicalizing, true},
		{StateCanonicalizing, StateWriting, true},
		{StateWriting, StateLinking, true},
		{StateLinking, StateDepleting, true},
		{StateDepleting, StateMonitoring, true},
		{StateMonitoring, StateDone, true},
		{StatePlanned, StateWriting, false},
		{StateFetching, StateFailed, true},
		{StateMonitoring, StateFailed, true},
		{StateDone, StateFailed, false},
		{StateFailed, StateFetching, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestMachine_RecordsFailedStage(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.advance(StateFetching))
	require.NoError(t, m.advance(StateFailed))
	assert.Equal(t, StateFetching, m.failedAt)
	assert.Error(t, m.advance(StateCanonicalizing))
}
