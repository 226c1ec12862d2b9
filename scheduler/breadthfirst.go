package scheduler

import (
	"github.com/eapache/queue"

	graph "github.com/cafeclimber/graph-prototype"
)

// BreadthFirst schedules blocks in breadth-first order starting from the
// source blocks (in-degree zero), so producers precede their consumers
// within a pass. Partitioning and execution match the Simple scheduler.
type BreadthFirst struct {
	*base
	policy    Policy
	blockList []graph.Block
	jobs      [][]graph.Block
}

// NewBreadthFirst returns a breadth-first scheduler over the graph.
func NewBreadthFirst(g *graph.Graph, policy Policy, opts ...Option) *BreadthFirst {
	return &BreadthFirst{
		base:   newBase(g, "breadth-first-pool", opts...),
		policy: policy,
	}
}

// Init resolves the graph, computes the traversal order and builds the
// job lists.
func (s *BreadthFirst) Init() error {
	if err := s.base.Init(); err != nil {
		return err
	}
	s.blockList = traverse(s.graph)
	if s.policy == MultiThreaded {
		s.jobs = partition(s.blockList, s.pool.MaxWorkers())
	}
	return nil
}

// BlockList returns the breadth-first execution order.
func (s *BreadthFirst) BlockList() []graph.Block {
	return s.blockList
}

// JobLists returns the per-worker job sets of a multi-threaded run.
func (s *BreadthFirst) JobLists() [][]graph.Block {
	return s.jobs
}

// Start begins execution, like Simple.Start but over the traversal
// order.
func (s *BreadthFirst) Start() error {
	if err := s.prepare(); err != nil {
		return err
	}
	if s.policy == SingleThreaded {
		s.runSingle(s.blockList)
		return nil
	}
	s.setState(Running)
	meters := s.meters(s.blockList)
	s.runOnPool(s.jobs, func(job []graph.Block) graph.WorkResult {
		return workOnce(job, meters)
	})
	return nil
}

// RunAndWait starts execution and blocks until the graph quiesces or
// fails.
func (s *BreadthFirst) RunAndWait() error {
	if err := s.Start(); err != nil {
		return err
	}
	s.WaitDone()
	if s.State() == Error {
		return graph.ErrWork
	}
	return nil
}

func (s *BreadthFirst) prepare() error {
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
		return ErrNotInitialised
	}
	return nil
}

// traverse produces the breadth-first block order rooted at the source
// blocks, skipping already-visited blocks to stay safe on cyclic graphs.
// Blocks unreachable from any source (including fully disconnected ones)
// are appended in insertion order so every block keeps executing.
func traverse(g *graph.Graph) []graph.Block {
	adjacency := make(map[graph.Block][]graph.Block)
	reached := make(map[graph.Block]bool)
	var sources []graph.Block
	for _, e := range g.Edges() {
		adjacency[e.Src] = append(adjacency[e.Src], e.Dst)
		sources = append(sources, e.Src)
		reached[e.Dst] = true
	}

	visited := make(map[graph.Block]bool)
	pending := queue.New()
	for _, src := range sources {
		if !reached[src] && !visited[src] {
			pending.Add(src)
			visited[src] = true
		}
	}

	var order []graph.Block
	for pending.Length() > 0 {
		current := pending.Remove().(graph.Block)
		order = append(order, current)
		for _, dst := range adjacency[current] {
			if !visited[dst] {
				pending.Add(dst)
				visited[dst] = true
			}
		}
	}

	for _, b := range g.Blocks() {
		if !visited[b] {
			order = append(order, b)
		}
	}
	return order
}
