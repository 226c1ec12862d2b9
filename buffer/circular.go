// Package buffer implements the lock-free streaming buffers connecting
// dataflow blocks: a circular buffer with single- or multi-producer modes
// and independently consuming readers, and a single-threaded history
// buffer.
//
// Positions in a buffer are sequences into an infinite logical stream;
// the physical slot of sequence s is s modulo the capacity. Storage is
// mapped twice back-to-back where the host allows it, so every window of
// at most capacity elements is contiguous regardless of wrap-around.
package buffer

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/cafeclimber/graph-prototype/mem"
)

// ProducerKind selects the writer mode of a circular buffer at
// construction time.
type ProducerKind int

const (
	// ProducerSingle is the CAS-free single-writer mode.
	ProducerSingle ProducerKind = iota
	// ProducerMulti supports concurrent writers through a shared claim
	// cursor and a per-slot published array.
	ProducerMulti
)

// Option configures a circular buffer.
type Option func(*options)

type options struct {
	wait WaitStrategy
}

// WithWaitStrategy sets the strategy used by blocked writers and readers.
// The default is BlockingWait.
func WithWaitStrategy(ws WaitStrategy) Option {
	return func(o *options) { o.wait = ws }
}

// Buffer is a fixed-capacity ring over element type T shared by one or
// many producers and any number of independently consuming readers.
type Buffer[T any] struct {
	capacity int
	data     []T // doubled view, len == 2*capacity
	region   *mem.DoubleMapped
	mirrored bool // fallback storage: publisher keeps data[capacity:] equal to data[:capacity]

	cursor  Sequence // last published sequence
	readers SequenceRegistry
	wait    WaitStrategy

	multi     bool
	claim     Sequence       // multi-producer: last claimed sequence
	published []atomic.Int64 // multi-producer: published[s%capacity] == s when slot s is readable

	writerLive atomic.Bool // single-producer: guards against a second writer
}

// New constructs a single-producer buffer with space for at least size
// elements. The capacity is rounded up to satisfy the storage
// constraints; Size reports the result.
func New[T any](size int, opts ...Option) (*Buffer[T], error) {
	return newBuffer[T](size, ProducerSingle, opts...)
}

// NewMulti constructs a multi-producer buffer.
func NewMulti[T any](size int, opts ...Option) (*Buffer[T], error) {
	return newBuffer[T](size, ProducerMulti, opts...)
}

func newBuffer[T any](size int, kind ProducerKind, opts ...Option) (*Buffer[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrInvalidArgument, size)
	}
	o := options{wait: NewBlockingWait()}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Buffer[T]{
		wait:  o.wait,
		multi: kind == ProducerMulti,
	}
	b.cursor.SetValue(InitialCursorValue)
	b.claim.SetValue(InitialCursorValue)

	if err := b.allocate(size); err != nil {
		return nil, err
	}

	if b.multi {
		b.published = make([]atomic.Int64, b.capacity)
		for i := range b.published {
			// slot i of lap -1: never matches a real published sequence
			b.published[i].Store(int64(i) - int64(b.capacity))
		}
	}
	return b, nil
}

// allocate picks the storage backend. Pointer-free element types on hosts
// with the double-mapping primitive share physical pages between the two
// halves of the view; everything else gets a plain doubled slice whose
// second half is kept in sync by the publisher.
func (b *Buffer[T]) allocate(size int) error {
	var zero T
	stride := int(unsafe.Sizeof(zero))
	elemType := reflect.TypeOf(zero) // nil for interface element types

	if stride > 0 && mem.Available() && elemType != nil && pointerFree(elemType) {
		capacity := roundCapacity(size, stride)
		region, err := mem.New(capacity * stride)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrResourceExhausted, err)
		}
		b.capacity = capacity
		b.region = region
		b.data = unsafe.Slice((*T)(unsafe.Pointer(&region.Bytes()[0])), 2*capacity)
		return nil
	}

	capacity := nextPowerOfTwo(size)
	b.capacity = capacity
	b.data = make([]T, 2*capacity)
	b.mirrored = true
	return nil
}

// Size returns the buffer capacity in elements.
func (b *Buffer[T]) Size() int {
	return b.capacity
}

// NReaders returns the number of currently registered readers.
func (b *Buffer[T]) NReaders() int {
	return b.readers.Len()
}

// CursorSequence returns the writer cursor.
func (b *Buffer[T]) CursorSequence() *Sequence {
	return &b.cursor
}

// Close releases the backing storage. The buffer must outlive all of its
// readers and writers; Close is only valid once they are gone.
func (b *Buffer[T]) Close() error {
	if b.region != nil {
		region := b.region
		b.region = nil
		b.data = nil
		return region.Close()
	}
	b.data = nil
	return nil
}

// window returns the contiguous physical range of n elements starting at
// sequence start.
func (b *Buffer[T]) window(start int64, n int) []T {
	idx := int(start % int64(b.capacity))
	return b.data[idx : idx+n : idx+n]
}

// syncMirror re-establishes data[i+capacity] == data[i] for the freshly
// written window [start, start+n). Only needed for fallback storage; the
// double-mapped backend aliases the halves in hardware.
func (b *Buffer[T]) syncMirror(start int64, n int) {
	if !b.mirrored || n == 0 {
		return
	}
	c := b.capacity
	from := int(start % int64(c))
	end := from + n
	if end <= c {
		copy(b.data[from+c:end+c], b.data[from:end])
		return
	}
	copy(b.data[from+c:], b.data[from:c])
	copy(b.data[:end-c], b.data[c:end])
}

// highestPublished returns the highest sequence h in [from, to] such that
// every sequence in [from, h] is published, or from−1 if the first slot
// is still pending. Single-producer buffers publish contiguously, so the
// scan only exists in multi mode.
func (b *Buffer[T]) highestPublished(from, to int64) int64 {
	if !b.multi {
		return to
	}
	for s := from; s <= to; s++ {
		if b.published[int(s%int64(b.capacity))].Load() != s {
			return s - 1
		}
	}
	return to
}

func (b *Buffer[T]) markPublished(from, to int64) {
	for s := from; s <= to; s++ {
		b.published[int(s%int64(b.capacity))].Store(s)
	}
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// roundCapacity returns the smallest capacity ≥ size such that
// capacity*stride is an exact multiple of the page size.
func roundCapacity(size, stride int) int {
	page := mem.PageSize()
	g := gcd(stride, page)
	chunk := page / g // elements per aligned block of lcm(stride, page) bytes
	if chunk == 0 {
		chunk = 1
	}
	blocks := (size + chunk - 1) / chunk
	if blocks == 0 {
		blocks = 1
	}
	return blocks * chunk
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
