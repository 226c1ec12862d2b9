package buffer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitStrategiesReturnImmediatelyWhenReached(t *testing.T) {
	strategies := map[string]WaitStrategy{
		"blocking":         NewBlockingWait(),
		"busy spin":        BusySpinWait{},
		"yielding":         YieldingWait{},
		"sleeping":         SleepingWait{},
		"spin wait":        SpinWait{},
		"timeout blocking": NewTimeoutBlockingWait(time.Second),
	}
	for name, ws := range strategies {
		t.Run(name, func(t *testing.T) {
			cursor := NewSequenceAt(5)
			observed, err := ws.WaitFor(3, cursor, nil)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, observed, int64(3))
			ws.SignalAllWhenBlocking()
		})
	}
}

func TestWaitStrategiesObserveDependentSequences(t *testing.T) {
	cursor := NewSequenceAt(10)
	dep := NewSequenceAt(2)

	ws := BusySpinWait{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		observed, err := ws.WaitFor(5, cursor, []*Sequence{dep})
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, observed, int64(5))
	}()

	time.Sleep(time.Millisecond)
	dep.SetValue(5)
	wg.Wait()
}

func TestBlockingWaitWakesOnSignal(t *testing.T) {
	cursor := NewSequence()
	ws := NewBlockingWait()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		observed, err := ws.WaitFor(0, cursor, nil)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, observed, int64(0))
	}()

	time.Sleep(time.Millisecond)
	cursor.SetValue(0)
	ws.SignalAllWhenBlocking()
	wg.Wait()
}

func TestTimeoutBlockingWaitTimesOut(t *testing.T) {
	cursor := NewSequence()
	ws := NewTimeoutBlockingWait(5 * time.Millisecond)

	_, err := ws.WaitFor(10, cursor, nil)
	assert.ErrorIs(t, err, ErrTimeout)
}
