package buffer

import (
	"math"
	"runtime"
	"sync"
	"time"
)

// WaitStrategy decides how a writer or reader waits until a cursor, and
// every sequence depending on it, reaches a target position. WaitFor
// returns the observed position, which is at least target unless an error
// occurred. SignalAllWhenBlocking wakes blocked waiters after a cursor
// advance; strategies that never block implement it as a no-op.
type WaitStrategy interface {
	WaitFor(target int64, cursor *Sequence, deps []*Sequence) (int64, error)
	SignalAllWhenBlocking()
}

func dependentMin(cursor *Sequence, deps []*Sequence) int64 {
	if len(deps) == 0 {
		return cursor.Value()
	}
	return MinSequence(deps, math.MaxInt64)
}

// BlockingWait parks waiters on a condition variable until signalled.
type BlockingWait struct {
	mu   sync.Mutex
	cond *sync.Cond
	once sync.Once
}

// NewBlockingWait returns a condition-variable based strategy.
func NewBlockingWait() *BlockingWait {
	w := &BlockingWait{}
	w.init()
	return w
}

func (w *BlockingWait) init() {
	w.once.Do(func() { w.cond = sync.NewCond(&w.mu) })
}

// WaitFor blocks until the cursor reaches target, then spins for the
// dependent sequences.
func (w *BlockingWait) WaitFor(target int64, cursor *Sequence, deps []*Sequence) (int64, error) {
	w.init()
	if cursor.Value() < target {
		w.mu.Lock()
		for cursor.Value() < target {
			w.cond.Wait()
		}
		w.mu.Unlock()
	}
	available := dependentMin(cursor, deps)
	for available < target {
		runtime.Gosched()
		available = dependentMin(cursor, deps)
	}
	return available, nil
}

// SignalAllWhenBlocking wakes all parked waiters.
func (w *BlockingWait) SignalAllWhenBlocking() {
	w.init()
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

// BusySpinWait burns the core in a tight load loop. Lowest latency,
// highest CPU cost.
type BusySpinWait struct{}

func (BusySpinWait) WaitFor(target int64, cursor *Sequence, deps []*Sequence) (int64, error) {
	available := dependentMin(cursor, deps)
	for available < target {
		available = dependentMin(cursor, deps)
	}
	return available, nil
}

func (BusySpinWait) SignalAllWhenBlocking() {}

// YieldingWait spins a bounded number of times, then yields the processor
// between retries.
type YieldingWait struct{}

const yieldingSpinTries = 100

func (YieldingWait) WaitFor(target int64, cursor *Sequence, deps []*Sequence) (int64, error) {
	counter := yieldingSpinTries
	available := dependentMin(cursor, deps)
	for available < target {
		if counter > 0 {
			counter--
		} else {
			runtime.Gosched()
		}
		available = dependentMin(cursor, deps)
	}
	return available, nil
}

func (YieldingWait) SignalAllWhenBlocking() {}

// SleepingWait spins, then yields, then sleeps between retries. Cheapest
// on CPU, worst latency.
type SleepingWait struct {
	// SleepFor is the park duration once spinning and yielding are
	// exhausted. Zero means 100µs.
	SleepFor time.Duration
}

const sleepingSpinTries = 200

func (w SleepingWait) WaitFor(target int64, cursor *Sequence, deps []*Sequence) (int64, error) {
	sleep := w.SleepFor
	if sleep == 0 {
		sleep = 100 * time.Microsecond
	}
	counter := sleepingSpinTries
	available := dependentMin(cursor, deps)
	for available < target {
		switch {
		case counter > 100:
			counter--
		case counter > 0:
			counter--
			runtime.Gosched()
		default:
			time.Sleep(sleep)
		}
		available = dependentMin(cursor, deps)
	}
	return available, nil
}

func (SleepingWait) SignalAllWhenBlocking() {}

// SpinWait backs off exponentially between polls, capped at a short park.
type SpinWait struct{}

func (SpinWait) WaitFor(target int64, cursor *Sequence, deps []*Sequence) (int64, error) {
	backoff := 1
	available := dependentMin(cursor, deps)
	for available < target {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < 1<<10 {
			backoff <<= 1
		}
		available = dependentMin(cursor, deps)
	}
	return available, nil
}

func (SpinWait) SignalAllWhenBlocking() {}

// TimeoutBlockingWait behaves like BlockingWait but fails the wait with
// ErrTimeout once the deadline passes.
type TimeoutBlockingWait struct {
	Timeout time.Duration

	mu   sync.Mutex
	cond *sync.Cond
	once sync.Once
}

// NewTimeoutBlockingWait returns a blocking strategy with a deadline.
func NewTimeoutBlockingWait(timeout time.Duration) *TimeoutBlockingWait {
	w := &TimeoutBlockingWait{Timeout: timeout}
	w.init()
	return w
}

func (w *TimeoutBlockingWait) init() {
	w.once.Do(func() { w.cond = sync.NewCond(&w.mu) })
}

func (w *TimeoutBlockingWait) WaitFor(target int64, cursor *Sequence, deps []*Sequence) (int64, error) {
	w.init()
	deadline := time.Now().Add(w.Timeout)

	// sync.Cond has no deadline wait, so a timer wakes the waiter once the
	// timeout elapses to re-check the clock.
	wakeup := time.AfterFunc(w.Timeout, w.SignalAllWhenBlocking)
	defer wakeup.Stop()

	w.mu.Lock()
	for cursor.Value() < target {
		if time.Now().After(deadline) {
			w.mu.Unlock()
			return cursor.Value(), ErrTimeout
		}
		w.cond.Wait()
	}
	w.mu.Unlock()

	available := dependentMin(cursor, deps)
	for available < target {
		if time.Now().After(deadline) {
			return available, ErrTimeout
		}
		runtime.Gosched()
		available = dependentMin(cursor, deps)
	}
	return available, nil
}

func (w *TimeoutBlockingWait) SignalAllWhenBlocking() {
	w.init()
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}
