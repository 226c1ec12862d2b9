// Package mock provides minimal block implementations used across the
// runtime's own tests: a counting source, a pass-through transform and a
// summing sink. They double as reference block implementations for
// users.
package mock

import (
	graph "github.com/cafeclimber/graph-prototype"
	"github.com/cafeclimber/graph-prototype/settings"
)

const defaultChunkSize = 64

// Counter tracks the work performed by a mock block.
type Counter struct {
	Work    int
	Samples int
}

// Source emits sequentially numbered int64 samples, starting at 0, until
// Limit samples are out, then reports done.
type Source struct {
	Output *graph.Out[int64]

	// Limit is the total number of samples to emit.
	Limit int
	// ChunkSize bounds how many samples one Work call emits.
	ChunkSize int

	Counter  Counter
	settings *settings.Settings

	name string
	next int64
}

// NewSource allocates a source block emitting limit samples.
func NewSource(limit int) *Source {
	s := &Source{
		Output:    graph.NewOut[int64]("out"),
		Limit:     limit,
		ChunkSize: defaultChunkSize,
		name:      graph.NewUniqueName("mock.Source"),
	}
	s.settings, _ = settings.New(s)
	return s
}

// Settings exposes the staged-settings facility of the block.
func (s *Source) Settings() *settings.Settings {
	return s.settings
}

// Work emits up to budget samples.
func (s *Source) Work(budget int) graph.WorkResult {
	s.settings.ApplyStaged()
	s.Counter.Work++

	remaining := s.Limit - int(s.next)
	if remaining <= 0 {
		return graph.WorkResult{Requested: budget, Status: graph.WorkDone}
	}

	n := s.ChunkSize
	if n > remaining {
		n = remaining
	}
	if n > budget {
		n = budget
	}

	writer := s.Output.Writer()
	if free := writer.Available(); free < n {
		if free == 0 {
			return graph.WorkResult{Requested: budget, Status: graph.WorkInsufficientOutput}
		}
		n = free
	}

	out, ok := writer.TryReserve(n)
	if !ok {
		return graph.WorkResult{Requested: budget, Status: graph.WorkInsufficientOutput}
	}
	for i := range out.Slice() {
		out.Slice()[i] = s.next
		s.next++
	}
	out.Publish(n)
	s.Counter.Samples += n
	return graph.WorkResult{Requested: budget, Performed: n, Status: graph.WorkOK}
}

// IsBlocking reports false: the source never blocks.
func (s *Source) IsBlocking() bool { return false }

// AvailableInputSamples reports zero inputs.
func (s *Source) AvailableInputSamples(out []int) int { return 0 }

// Name returns the block type name.
func (s *Source) Name() string { return "mock.Source" }

// UniqueName returns the process-unique instance name.
func (s *Source) UniqueName() string { return s.name }

// OutputPorts lists the ports for name-based connection.
func (s *Source) OutputPorts() []graph.Port { return []graph.Port{s.Output} }

// InputPorts lists the ports for name-based connection.
func (s *Source) InputPorts() []graph.Port { return nil }

// Transform applies Fn to every sample moving through it. A nil Fn
// passes samples unchanged.
type Transform struct {
	Input  *graph.In[int64]
	Output *graph.Out[int64]
	Fn     func(int64) int64

	Counter  Counter
	settings *settings.Settings

	name string
}

// NewTransform allocates a transform block.
func NewTransform(fn func(int64) int64) *Transform {
	t := &Transform{
		Input:  graph.NewIn[int64]("in"),
		Output: graph.NewOut[int64]("out"),
		Fn:     fn,
		name:   graph.NewUniqueName("mock.Transform"),
	}
	t.settings, _ = settings.New(t)
	return t
}

// Settings exposes the staged-settings facility of the block.
func (t *Transform) Settings() *settings.Settings {
	return t.settings
}

// Work moves up to budget samples from input to output.
func (t *Transform) Work(budget int) graph.WorkResult {
	t.settings.ApplyStaged()
	t.Counter.Work++

	reader := t.Input.Reader()
	writer := t.Output.Writer()

	n := reader.Available()
	if n == 0 {
		return graph.WorkResult{Requested: budget, Status: graph.WorkInsufficientInput}
	}
	if n > budget {
		n = budget
	}
	if free := writer.Available(); free < n {
		if free == 0 {
			return graph.WorkResult{Requested: budget, Status: graph.WorkInsufficientOutput}
		}
		n = free
	}

	in := reader.Get(n)
	out, ok := writer.TryReserve(n)
	if !ok {
		in.Consume(0)
		return graph.WorkResult{Requested: budget, Status: graph.WorkInsufficientOutput}
	}
	for i, v := range in.Slice() {
		if t.Fn != nil {
			v = t.Fn(v)
		}
		out.Slice()[i] = v
	}
	out.Publish(n)
	in.Consume(n)
	t.Counter.Samples += n
	return graph.WorkResult{Requested: budget, Performed: n, Status: graph.WorkOK}
}

// IsBlocking reports false.
func (t *Transform) IsBlocking() bool { return false }

// AvailableInputSamples fills out with the input port's availability.
func (t *Transform) AvailableInputSamples(out []int) int {
	n := t.Input.Available()
	if len(out) > 0 {
		out[0] = n
	}
	return n
}

// Name returns the block type name.
func (t *Transform) Name() string { return "mock.Transform" }

// UniqueName returns the process-unique instance name.
func (t *Transform) UniqueName() string { return t.name }

// OutputPorts lists the ports for name-based connection.
func (t *Transform) OutputPorts() []graph.Port { return []graph.Port{t.Output} }

// InputPorts lists the ports for name-based connection.
func (t *Transform) InputPorts() []graph.Port { return []graph.Port{t.Input} }

// Sink consumes every incoming sample and accumulates their sum.
type Sink struct {
	Input *graph.In[int64]

	Sum      int64
	Values   []int64
	Discard  bool
	Counter  Counter
	settings *settings.Settings

	name string
}

// NewSink allocates a sink block. With Discard set the received values
// are not retained.
func NewSink() *Sink {
	s := &Sink{
		Input: graph.NewIn[int64]("in"),
		name:  graph.NewUniqueName("mock.Sink"),
	}
	s.settings, _ = settings.New(s)
	return s
}

// Settings exposes the staged-settings facility of the block.
func (s *Sink) Settings() *settings.Settings {
	return s.settings
}

// Work drains up to budget samples.
func (s *Sink) Work(budget int) graph.WorkResult {
	s.settings.ApplyStaged()
	s.Counter.Work++

	reader := s.Input.Reader()
	n := reader.Available()
	if n == 0 {
		return graph.WorkResult{Requested: budget, Status: graph.WorkInsufficientInput}
	}
	if n > budget {
		n = budget
	}
	in := reader.Get(n)
	for _, v := range in.Slice() {
		s.Sum += v
		if !s.Discard {
			s.Values = append(s.Values, v)
		}
	}
	in.Consume(n)
	s.Counter.Samples += n
	return graph.WorkResult{Requested: budget, Performed: n, Status: graph.WorkOK}
}

// IsBlocking reports false.
func (s *Sink) IsBlocking() bool { return false }

// AvailableInputSamples fills out with the input port's availability.
func (s *Sink) AvailableInputSamples(out []int) int {
	n := s.Input.Available()
	if len(out) > 0 {
		out[0] = n
	}
	return n
}

// Name returns the block type name.
func (s *Sink) Name() string { return "mock.Sink" }

// UniqueName returns the process-unique instance name.
func (s *Sink) UniqueName() string { return s.name }

// OutputPorts lists the ports for name-based connection.
func (s *Sink) OutputPorts() []graph.Port { return nil }

// InputPorts lists the ports for name-based connection.
func (s *Sink) InputPorts() []graph.Port { return []graph.Port{s.Input} }
