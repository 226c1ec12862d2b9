package buffer

import (
	"fmt"

	"github.com/cafeclimber/graph-prototype/log"
)

// Writer publishes samples into a buffer. A single-producer buffer allows
// exactly one live writer; multi-producer buffers hand out as many as
// requested.
type Writer[T any] struct {
	buf        *Buffer[T]
	nPublished int64
	reserved   bool // single-producer: a reservation is live
}

// NewWriter attaches a writer to the buffer.
func (b *Buffer[T]) NewWriter() *Writer[T] {
	if !b.multi && !b.writerLive.CompareAndSwap(false, true) {
		if log.Debug() {
			panic(fmt.Sprintf("%v: second writer on a single-producer buffer", ErrContractBreach))
		}
	}
	return &Writer[T]{buf: b}
}

// Buffer returns the buffer this writer publishes into.
func (w *Writer[T]) Buffer() *Buffer[T] {
	return w.buf
}

// Available returns the number of slots that can be reserved without
// blocking.
func (w *Writer[T]) Available() int {
	b := w.buf
	head := b.cursor.Value()
	if b.multi {
		head = b.claim.Value()
	}
	min := b.readers.Min(head)
	return b.capacity - int(head-min)
}

// NSamplesPublished returns the total number of samples this writer has
// published.
func (w *Writer[T]) NSamplesPublished() int64 {
	return w.nPublished
}

// ReservedOutput is an exclusive, scoped write window obtained from
// Reserve. Exactly one of Publish or Release must follow; Release without
// a publish gives a single-producer window up without advancing the
// cursor (see Release for multi-producer windows).
type ReservedOutput[T any] struct {
	writer *Writer[T]
	start  int64 // first sequence of the window
	data   []T
	done   bool
}

// Slice returns the contiguous mutable window.
func (r *ReservedOutput[T]) Slice() []T {
	return r.data
}

// Len returns the window length.
func (r *ReservedOutput[T]) Len() int {
	return len(r.data)
}

// Reserve claims a window of n slots, blocking per the buffer's wait
// strategy until enough capacity is free. n must not exceed the buffer
// capacity.
func (w *Writer[T]) Reserve(n int) (*ReservedOutput[T], error) {
	return w.reserve(n, true)
}

// TryReserve claims a window of n slots without blocking. It returns an
// empty window and false when the capacity is not available.
func (w *Writer[T]) TryReserve(n int) (*ReservedOutput[T], bool) {
	r, err := w.reserve(n, false)
	if err != nil {
		return &ReservedOutput[T]{writer: w, done: true}, false
	}
	return r, true
}

func (w *Writer[T]) reserve(n int, block bool) (*ReservedOutput[T], error) {
	b := w.buf
	if n < 0 || n > b.capacity {
		return nil, fmt.Errorf("%w: reserve %d of capacity %d", ErrInvalidArgument, n, b.capacity)
	}
	if n == 0 {
		return &ReservedOutput[T]{writer: w, done: true}, nil
	}
	if b.multi {
		return w.reserveMulti(n, block)
	}

	if w.reserved {
		if log.Debug() {
			panic(fmt.Sprintf("%v: reserve while a prior reservation is live", ErrContractBreach))
		}
	}

	head := b.cursor.Value()
	target := head + int64(n) - int64(b.capacity)
	if b.readers.Min(head) < target {
		if !block {
			return nil, fmt.Errorf("%w: %d slots", ErrResourceExhausted, n)
		}
		if _, err := b.wait.WaitFor(target, &b.cursor, b.readers.Snapshot()); err != nil {
			return nil, err
		}
	}

	w.reserved = true
	return &ReservedOutput[T]{
		writer: w,
		start:  head + 1,
		data:   b.window(head+1, n),
	}, nil
}

func (w *Writer[T]) reserveMulti(n int, block bool) (*ReservedOutput[T], error) {
	b := w.buf
	for {
		claimed := b.claim.Value()
		target := claimed + int64(n) - int64(b.capacity)
		if b.readers.Min(claimed) < target {
			if !block {
				return nil, fmt.Errorf("%w: %d slots", ErrResourceExhausted, n)
			}
			if _, err := b.wait.WaitFor(target, &b.cursor, b.readers.Snapshot()); err != nil {
				return nil, err
			}
			continue
		}
		if b.claim.CompareAndSet(claimed, claimed+int64(n)) {
			return &ReservedOutput[T]{
				writer: w,
				start:  claimed + 1,
				data:   b.window(claimed+1, n),
			}, nil
		}
	}
}

// Publish makes the first k reserved slots visible to readers and ends
// the window. In a multi-producer buffer the remaining slots are given
// back when they are still the newest claim; otherwise they are published
// as they are, like Release does.
func (r *ReservedOutput[T]) Publish(k int) {
	if r.done {
		return
	}
	if k < 0 || k > len(r.data) {
		if log.Debug() {
			panic(fmt.Sprintf("%v: publish %d of reserved %d", ErrContractBreach, k, len(r.data)))
		}
		if k < 0 {
			k = 0
		} else {
			k = len(r.data)
		}
	}
	r.finish(k)
}

// Release gives the window up. A single-producer window publishes
// nothing; a multi-producer window retreats the claim when it is still
// the newest one, otherwise the claimed slots are published as they are
// so readers never observe a gap.
func (r *ReservedOutput[T]) Release() {
	if r.done {
		return
	}
	b := r.writer.buf
	if b.multi {
		last := r.start + int64(len(r.data)) - 1
		if b.claim.CompareAndSet(last, r.start-1) {
			r.done = true
			return
		}
	}
	r.finish(0)
}

func (r *ReservedOutput[T]) finish(k int) {
	r.done = true
	w := r.writer
	b := w.buf

	if b.multi {
		last := r.start + int64(len(r.data)) - 1
		if k < len(r.data) && b.claim.CompareAndSet(last, r.start+int64(k)-1) {
			// the unpublished tail is still the newest claim: give it back
			last = r.start + int64(k) - 1
		}
		b.syncMirror(r.start, int(last-r.start+1))
		b.markPublished(r.start, last)
		// advance the shared cursor over every contiguously published slot
		for {
			current := b.cursor.Value()
			high := b.highestPublished(current+1, b.claim.Value())
			if high <= current {
				break
			}
			// a failed CAS means a peer moved the cursor: scan again
			b.cursor.CompareAndSet(current, high)
		}
		w.nPublished += int64(k)
		b.wait.SignalAllWhenBlocking()
		return
	}

	w.reserved = false
	if k > 0 {
		b.syncMirror(r.start, k)
		b.cursor.SetValue(r.start + int64(k) - 1)
		w.nPublished += int64(k)
	}
	b.wait.SignalAllWhenBlocking()
}

// Publish reserves n slots, fills them through fn and publishes them. A
// panic inside fn unwinds without advancing the cursor.
func (w *Writer[T]) Publish(fn func([]T), n int) error {
	out, err := w.Reserve(n)
	if err != nil {
		return err
	}
	defer out.Release()
	fn(out.Slice())
	out.Publish(n)
	return nil
}

// TryPublish behaves like Publish but returns false instead of blocking
// when the capacity is not available. Panics inside fn propagate either
// way.
func (w *Writer[T]) TryPublish(fn func([]T), n int) bool {
	out, ok := w.TryReserve(n)
	if !ok {
		return false
	}
	defer out.Release()
	fn(out.Slice())
	out.Publish(n)
	return true
}
