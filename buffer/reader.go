package buffer

import (
	"fmt"

	"github.com/cafeclimber/graph-prototype/log"
)

// ReleasePolicy is the action a ConsumableInput takes when it is released
// without an explicit consume.
type ReleasePolicy int

const (
	// ProcessAll consumes the full window length on release when no
	// consume was requested.
	ProcessAll ReleasePolicy = iota
	// ProcessNone consumes nothing on release.
	ProcessNone
	// Terminate marks a window whose release without consume is a
	// programming error.
	Terminate
)

// Reader owns a private consumer cursor registered with the buffer. A
// reader joining a live buffer starts at the current writer cursor and
// sees no historical samples.
type Reader[T any] struct {
	buf       *Buffer[T]
	seq       *Sequence
	nConsumed int64

	// outstanding window state, shared by every view handed out until
	// the consume resolves it
	head *viewState
}

type viewState struct {
	start     int64 // first sequence of the first un-consumed window
	length    int   // length of the first un-consumed window
	requested int   // -1 until consume is requested
}

// NewReader registers a fresh consumer cursor positioned at the current
// writer cursor and returns its handle.
func (b *Buffer[T]) NewReader() *Reader[T] {
	r := &Reader[T]{buf: b, seq: NewSequence()}
	b.readers.Add(&b.cursor, r.seq)
	return r
}

// Buffer returns the buffer this reader consumes from.
func (r *Reader[T]) Buffer() *Buffer[T] {
	return r.buf
}

// Close deregisters the reader's cursor. The buffer stops gating the
// writer on this reader afterwards.
func (r *Reader[T]) Close() {
	r.buf.readers.Remove(r.seq)
}

// Position returns the last consumed sequence. Before the first consume
// it is the writer cursor at the time the reader joined
// (InitialCursorValue on a buffer that has published nothing).
func (r *Reader[T]) Position() int64 {
	return r.seq.Value()
}

// Available returns the number of published samples not yet consumed.
// In multi-producer mode the writer cursor only ever advances over
// contiguously published slots, so it is safe to read directly in both
// modes.
func (r *Reader[T]) Available() int {
	return int(r.buf.cursor.Value() - r.seq.Value())
}

// NSamplesConsumed returns the total number of samples this reader has
// consumed.
func (r *Reader[T]) NSamplesConsumed() int64 {
	return r.nConsumed
}

// IsConsumeRequested reports whether the outstanding window has a pending
// consume request.
func (r *Reader[T]) IsConsumeRequested() bool {
	return r.head != nil && r.head.requested >= 0
}

// ConsumableInput is a read-only window acquired from Get. Consume
// releases up to the window length back to the writer; Release applies
// the window's release policy when no consume was requested.
type ConsumableInput[T any] struct {
	reader *Reader[T]
	state  *viewState
	data   []T
	policy ReleasePolicy
}

// Slice returns the contiguous read window.
func (c *ConsumableInput[T]) Slice() []T {
	return c.data
}

// Len returns the window length.
func (c *ConsumableInput[T]) Len() int {
	return len(c.data)
}

// IsConsumeRequested reports whether Consume was called on the
// outstanding window this view belongs to.
func (c *ConsumableInput[T]) IsConsumeRequested() bool {
	return c.state != nil && c.state.requested >= 0
}

// Get returns a window of n samples with the ProcessAll policy.
//
// While a prior window from this reader is unconsumed, Get returns the
// same window head clamped to the earlier length, and the cursor does not
// advance until Consume resolves the original window. Requesting more
// than Available is a contract breach: it panics when GRAPH_DEBUG is set
// and clamps otherwise.
func (r *Reader[T]) Get(n int) *ConsumableInput[T] {
	return r.GetWithPolicy(n, ProcessAll)
}

// GetAll returns a window over everything currently available. It never
// blocks.
func (r *Reader[T]) GetAll() *ConsumableInput[T] {
	return r.GetWithPolicy(r.Available(), ProcessAll)
}

// GetWithPolicy returns a window of n samples carrying the given release
// policy.
func (r *Reader[T]) GetWithPolicy(n int, policy ReleasePolicy) *ConsumableInput[T] {
	if n < 0 {
		n = 0
	}
	available := r.Available()

	if r.head != nil {
		// repeated reads are idempotent until the first window resolves
		if n > r.head.length {
			n = r.head.length
		}
		return &ConsumableInput[T]{
			reader: r,
			state:  r.head,
			data:   r.buf.window(r.head.start, n),
			policy: policy,
		}
	}

	if n > available {
		if log.Debug() {
			panic(fmt.Sprintf("%v: get %d of available %d", ErrContractBreach, n, available))
		}
		n = available
	}
	if n == 0 {
		return &ConsumableInput[T]{reader: r, policy: policy}
	}

	state := &viewState{start: r.seq.Value() + 1, length: n, requested: -1}
	r.head = state
	return &ConsumableInput[T]{
		reader: r,
		state:  state,
		data:   r.buf.window(state.start, n),
		policy: policy,
	}
}

// WaitGet blocks per the buffer's wait strategy until n samples are
// published, then returns the window. A wait timeout yields an empty
// window and ErrTimeout.
func (r *Reader[T]) WaitGet(n int) (*ConsumableInput[T], error) {
	if n <= 0 || r.head != nil {
		return r.Get(n), nil
	}
	b := r.buf
	target := r.seq.Value() + int64(n)
	if _, err := b.wait.WaitFor(target, &b.cursor, nil); err != nil {
		return &ConsumableInput[T]{reader: r, policy: ProcessAll}, err
	}
	return r.Get(n), nil
}

// Consume releases the first k samples of the outstanding window back to
// the writer. k beyond the window length is a contract breach. Consume
// returns false when no window is outstanding and k > 0.
func (c *ConsumableInput[T]) Consume(k int) bool {
	if c.state == nil || c.reader.head != c.state {
		return k == 0
	}
	if k < 0 || k > c.state.length {
		if log.Debug() {
			panic(fmt.Sprintf("%v: consume %d of window %d", ErrContractBreach, k, c.state.length))
		}
		if k < 0 {
			k = 0
		} else {
			k = c.state.length
		}
	}
	c.state.requested = k
	c.resolve()
	return true
}

// Release finishes the view. If a consume was requested it is already
// applied; otherwise the release policy decides: ProcessAll consumes the
// full window, ProcessNone nothing, and Terminate panics when
// GRAPH_DEBUG is set (treated as ProcessNone otherwise).
func (c *ConsumableInput[T]) Release() {
	if c.state == nil || c.reader.head != c.state {
		return
	}
	if c.state.requested >= 0 {
		return
	}
	switch c.policy {
	case ProcessAll:
		c.state.requested = c.state.length
	case ProcessNone:
		c.state.requested = 0
	case Terminate:
		if log.Debug() {
			panic(fmt.Sprintf("%v: Terminate window released without consume", ErrContractBreach))
		}
		c.state.requested = 0
	}
	c.resolve()
}

func (c *ConsumableInput[T]) resolve() {
	r := c.reader
	if r.head != c.state {
		return
	}
	k := c.state.requested
	r.head = nil
	if k > 0 {
		r.seq.AddAndGet(int64(k))
		r.nConsumed += int64(k)
	}
	r.buf.wait.SignalAllWhenBlocking()
}
