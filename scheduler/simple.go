package scheduler

import (
	"fmt"

	graph "github.com/cafeclimber/graph-prototype"
)

// Policy selects how a scheduler executes its job lists.
type Policy int

const (
	// SingleThreaded iterates all blocks on the calling goroutine.
	SingleThreaded Policy = iota
	// MultiThreaded partitions blocks over the worker pool.
	MultiThreaded
)

// Simple is a trivial loop scheduler: it iterates over all blocks in
// graph insertion order until a full pass performs no work.
type Simple struct {
	*base
	policy Policy
	jobs   [][]graph.Block
}

// NewSimple returns a simple scheduler over the graph.
func NewSimple(g *graph.Graph, policy Policy, opts ...Option) *Simple {
	return &Simple{
		base:   newBase(g, "simple-scheduler-pool", opts...),
		policy: policy,
	}
}

// Init resolves the graph and, in multi-threaded mode, partitions the
// blocks into round-robin job sets.
func (s *Simple) Init() error {
	if err := s.base.Init(); err != nil {
		return err
	}
	if s.policy == MultiThreaded {
		s.jobs = partition(s.graph.Blocks(), s.pool.MaxWorkers())
	}
	return nil
}

// Start begins execution. In single-threaded mode it blocks until the
// graph quiesces; in multi-threaded mode it returns once the workers are
// launched and WaitDone observes completion.
func (s *Simple) Start() error {
	if err := s.prepare(); err != nil {
		return err
	}
	if s.policy == SingleThreaded {
		s.runSingle(s.graph.Blocks())
		return nil
	}
	s.setState(Running)
	meters := s.meters(s.graph.Blocks())
	s.runOnPool(s.jobs, func(job []graph.Block) graph.WorkResult {
		return workOnce(job, meters)
	})
	return nil
}

// RunAndWait starts execution and blocks until the graph quiesces or
// fails.
func (s *Simple) RunAndWait() error {
	if err := s.Start(); err != nil {
		return err
	}
	s.WaitDone()
	if s.State() == Error {
		return graph.ErrWork
	}
	return nil
}

func (s *Simple) prepare() error {
	switch s.State() {
	case Idle:
		if err := s.Init(); err != nil {
			return err
		}
	case Stopped:
		if err := s.Reset(); err != nil {
			return err
		}
	case Paused:
		s.resume()
	}
	if s.State() != Initialised {
		return fmt.Errorf("%w: scheduler is %s", ErrNotInitialised, s.State())
	}
	return nil
}

// runSingle iterates the block list until a pass performs no productive
// work.
func (s *base) runSingle(blocks []graph.Block) {
	s.setState(Running)
	meters := s.meters(blocks)
	for !s.stop.Load() {
		result := workOnce(blocks, meters)
		if result.Status == graph.WorkError {
			s.setState(Error)
			return
		}
		if result.Status != graph.WorkOK {
			break
		}
	}
	switch s.State() {
	case RequestedPause:
		s.setState(Paused)
	default:
		s.setState(Stopped)
	}
}
