package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardTransitions(t *testing.T) {
	var g Guard
	assert.Equal(t, StateIdle, g.State())

	accepted := false
	require.NoError(t, g.TryStart(StateSearching, func() { accepted = true }))
	assert.True(t, accepted)
	assert.Equal(t, StateSearching, g.State())

	called := false
	assert.ErrorIs(t, g.TryStart(StateDeleting, func() { called = true }), ErrOperationBusy)
	assert.ErrorIs(t, g.TryStart(StateSearching, nil), ErrOperationBusy)
	assert.False(t, called, "rejected start must not run its callback")

	assert.False(t, g.Finish(StateDeleting), "only the active state may finish")
	assert.Equal(t, StateSearching, g.State())
	assert.True(t, g.Finish(StateSearching))
	assert.Equal(t, StateIdle, g.State())
	assert.False(t, g.Finish(StateSearching))

	assert.Error(t, g.TryStart(StateIdle, nil))
}

func TestGuardSingleWinner(t *testing.T) {
	var (
		g    Guard
		wins atomic.Int32
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := StateSearching
			if i%2 == 0 {
				s = StateDeleting
			}
			if g.TryStart(s, nil) == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "searching", StateSearching.String())
	assert.Equal(t, "deleting", StateDeleting.String())
	assert.Equal(t, "unknown", State(42).String())
}
