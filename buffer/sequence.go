package buffer

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// InitialCursorValue is the sentinel position of a sequence that has not
// published or consumed anything yet.
const InitialCursorValue int64 = -1

// Sequence is a cache-line aligned cursor into the infinite logical stream
// of a buffer. Physical slot indices are obtained modulo the buffer
// capacity.
type Sequence struct {
	_     [64]byte // padding to keep hot cursors on separate cache lines
	value atomic.Int64
	_     [56]byte
}

// NewSequence returns a sequence initialized to InitialCursorValue.
func NewSequence() *Sequence {
	return NewSequenceAt(InitialCursorValue)
}

// NewSequenceAt returns a sequence initialized to the given position.
func NewSequenceAt(value int64) *Sequence {
	s := &Sequence{}
	s.value.Store(value)
	return s
}

// Value returns the current position.
func (s *Sequence) Value() int64 {
	return s.value.Load()
}

// SetValue publishes a new position.
func (s *Sequence) SetValue(value int64) {
	s.value.Store(value)
}

// CompareAndSet moves the position from expected to value atomically.
func (s *Sequence) CompareAndSet(expected, value int64) bool {
	return s.value.CompareAndSwap(expected, value)
}

// IncrementAndGet advances the position by one and returns the result.
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.Add(1)
}

// AddAndGet advances the position by delta and returns the result.
func (s *Sequence) AddAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

func (s *Sequence) String() string {
	return fmt.Sprintf("%d", s.Value())
}

// MinSequence returns the smallest position in seqs, or floor if seqs is
// empty. Callers that need the unbounded minimum pass math.MaxInt64.
func MinSequence(seqs []*Sequence, floor int64) int64 {
	min := floor
	for _, s := range seqs {
		if v := s.Value(); v < min {
			min = v
		}
	}
	return min
}

// SequenceRegistry tracks the consumer cursors attached to a buffer. The
// write lock is taken only for registration and deregistration; Min,
// Snapshot and Len take the read lock, so writers reserving capacity
// take it too.
type SequenceRegistry struct {
	mu   sync.RWMutex
	seqs []*Sequence
}

// Add inserts seqs into the registry. Each new sequence is set to the
// cursor's current value before insertion, so a just-joined reader never
// observes historical slots.
func (r *SequenceRegistry) Add(cursor *Sequence, seqs ...*Sequence) {
	current := cursor.Value()
	for _, s := range seqs {
		s.SetValue(current)
	}
	r.mu.Lock()
	r.seqs = append(r.seqs, seqs...)
	r.mu.Unlock()
}

// Remove evicts the given sequence. Removing a sequence that was never
// added is a no-op.
func (r *SequenceRegistry) Remove(seq *Sequence) {
	r.mu.Lock()
	for i, s := range r.seqs {
		if s == seq {
			r.seqs = append(r.seqs[:i], r.seqs[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}

// Snapshot returns the currently registered sequences.
func (r *SequenceRegistry) Snapshot() []*Sequence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Sequence(nil), r.seqs...)
}

// Min returns the smallest registered position, or floor if the registry
// is empty.
func (r *SequenceRegistry) Min(floor int64) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return MinSequence(r.seqs, floor)
}

// Len returns the number of registered sequences.
func (r *SequenceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.seqs)
}
