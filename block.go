package graph

import (
	"fmt"

	"github.com/rs/xid"
)

// WorkStatus classifies the outcome of a single Work call.
type WorkStatus int

const (
	// WorkOK means the block performed some work and may perform more.
	WorkOK WorkStatus = iota
	// WorkDone means the block has no more work to do, ever.
	WorkDone
	// WorkError means the block failed; the scheduler moves to its error
	// sink state.
	WorkError
	// WorkInsufficientInput means the block is starved of input samples.
	WorkInsufficientInput
	// WorkInsufficientOutput means the block is blocked on output
	// capacity.
	WorkInsufficientOutput
)

func (s WorkStatus) String() string {
	switch s {
	case WorkOK:
		return "OK"
	case WorkDone:
		return "DONE"
	case WorkError:
		return "ERROR"
	case WorkInsufficientInput:
		return "INSUFFICIENT_INPUT"
	case WorkInsufficientOutput:
		return "INSUFFICIENT_OUTPUT"
	}
	return fmt.Sprintf("WorkStatus(%d)", int(s))
}

// WorkResult is returned by Block.Work.
type WorkResult struct {
	Requested int
	Performed int
	Status    WorkStatus
}

// MaxBudget requests as much work as the block can perform.
const MaxBudget = int(^uint(0) >> 1)

// Block is the capability contract consumed by schedulers. Blocks are
// owned by the graph; a scheduler never names concrete block types.
type Block interface {
	// Work performs at most budget samples worth of processing. Staged
	// settings, if the block carries any, are applied at the start of
	// the call.
	Work(budget int) WorkResult

	// IsBlocking reports whether the block performs blocking I/O. The
	// scheduler additionally polls input availability of blocking
	// blocks to avoid premature termination.
	IsBlocking() bool

	// AvailableInputSamples fills out with the per-input available
	// sample counts and returns the total.
	AvailableInputSamples(out []int) int

	// Name returns the block type name for diagnostics.
	Name() string

	// UniqueName returns a process-unique instance name.
	UniqueName() string
}

// PortProvider is implemented by blocks whose ports can be resolved by
// name, enabling ConnectByName and plugin-built graphs.
type PortProvider interface {
	OutputPorts() []Port
	InputPorts() []Port
}

// NewUniqueName derives a process-unique instance name from a block type
// name.
func NewUniqueName(name string) string {
	return fmt.Sprintf("%s#%s", name, xid.New().String())
}
