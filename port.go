package graph

import (
	"fmt"

	"github.com/cafeclimber/graph-prototype/buffer"
)

// DefaultBufferSize is the fallback edge buffer size when neither port
// nor connection requests one.
const DefaultBufferSize = 4096

// PortKind is the direction of a port.
type PortKind int

const (
	// PortOutput produces samples.
	PortOutput PortKind = iota
	// PortInput consumes samples.
	PortInput
)

func (k PortKind) String() string {
	if k == PortOutput {
		return "output"
	}
	return "input"
}

// Port is the direction- and type-erased view of a block port used for
// name-based connection resolution.
type Port interface {
	PortName() string
	Kind() PortKind
	Connected() bool

	// lace wires an output port to an input port. Implemented by Out;
	// calling it on an In fails with ErrPortMismatch.
	lace(dst Port, size int) error
}

// Out is a typed output port. The first connection allocates the edge
// buffer; further connections attach additional readers to the same
// buffer, so one output can fan out to several inputs.
type Out[T any] struct {
	name      string
	requested int
	buf       *buffer.Buffer[T]
	writer    *buffer.Writer[T]
	multi     bool
	opts      []buffer.Option
}

// NewOut declares an output port.
func NewOut[T any](name string) *Out[T] {
	return &Out[T]{name: name}
}

// WithRequestedSize sets the minimum buffer size this port needs.
func (o *Out[T]) WithRequestedSize(n int) *Out[T] {
	o.requested = n
	return o
}

// WithBufferOptions forwards options to the buffer allocated for this
// port's connections.
func (o *Out[T]) WithBufferOptions(opts ...buffer.Option) *Out[T] {
	o.opts = opts
	return o
}

// WithMultiProducer allocates the port's buffer in multi-producer mode,
// for blocks that publish into one output from several goroutines.
func (o *Out[T]) WithMultiProducer() *Out[T] {
	o.multi = true
	return o
}

// PortName returns the port name.
func (o *Out[T]) PortName() string { return o.name }

// Kind returns PortOutput.
func (o *Out[T]) Kind() PortKind { return PortOutput }

// Connected reports whether the port's buffer has been allocated.
func (o *Out[T]) Connected() bool { return o.buf != nil }

// Writer returns the buffer writer, nil before graph initialisation.
func (o *Out[T]) Writer() *buffer.Writer[T] { return o.writer }

// Buffer returns the edge buffer, nil before graph initialisation.
func (o *Out[T]) Buffer() *buffer.Buffer[T] { return o.buf }

// BufferSize returns the allocated buffer size, 0 before graph
// initialisation.
func (o *Out[T]) BufferSize() int {
	if o.buf == nil {
		return 0
	}
	return o.buf.Size()
}

func (o *Out[T]) lace(dst Port, size int) error {
	in, ok := dst.(*In[T])
	if !ok {
		if dst.Kind() != PortInput {
			return fmt.Errorf("%w: cannot connect %s port %q to %s port %q",
				ErrPortMismatch, o.Kind(), o.name, dst.Kind(), dst.PortName())
		}
		return fmt.Errorf("%w: element types of %q and %q differ",
			ErrPortMismatch, o.name, dst.PortName())
	}
	if in.Connected() {
		return fmt.Errorf("%w: input port %q", ErrAlreadyConnected, in.name)
	}

	if size < o.requested {
		size = o.requested
	}
	if size < in.requested {
		size = in.requested
	}
	if size <= 0 {
		size = DefaultBufferSize
	}

	if o.buf == nil {
		var (
			buf *buffer.Buffer[T]
			err error
		)
		if o.multi {
			buf, err = buffer.NewMulti[T](size, o.opts...)
		} else {
			buf, err = buffer.New[T](size, o.opts...)
		}
		if err != nil {
			return fmt.Errorf("edge buffer for port %q: %w", o.name, err)
		}
		o.buf = buf
		o.writer = buf.NewWriter()
	}
	in.reader = o.buf.NewReader()
	in.buf = o.buf
	return nil
}

// In is a typed input port. It holds the private reader attached during
// graph initialisation.
type In[T any] struct {
	name      string
	requested int
	buf       *buffer.Buffer[T]
	reader    *buffer.Reader[T]
}

// NewIn declares an input port.
func NewIn[T any](name string) *In[T] {
	return &In[T]{name: name}
}

// WithRequestedSize sets the minimum buffer size this port needs.
func (i *In[T]) WithRequestedSize(n int) *In[T] {
	i.requested = n
	return i
}

// PortName returns the port name.
func (i *In[T]) PortName() string { return i.name }

// Kind returns PortInput.
func (i *In[T]) Kind() PortKind { return PortInput }

// Connected reports whether a reader is attached.
func (i *In[T]) Connected() bool { return i.reader != nil }

// Reader returns the attached reader, nil before graph initialisation.
func (i *In[T]) Reader() *buffer.Reader[T] { return i.reader }

// Available returns the number of samples ready on this port, 0 when
// unconnected.
func (i *In[T]) Available() int {
	if i.reader == nil {
		return 0
	}
	return i.reader.Available()
}

func (i *In[T]) lace(dst Port, size int) error {
	return fmt.Errorf("%w: port %q is an input, cannot connect from it",
		ErrPortMismatch, i.name)
}
