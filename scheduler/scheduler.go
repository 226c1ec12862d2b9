// Package scheduler drives the blocks of a graph. A scheduler borrows
// the graph for its lifetime, resolves its pending connections, and
// repeatedly invokes each block's Work method on a fixed worker pool
// until the graph quiesces or is stopped.
//
// Termination of a multi-threaded run is detected through the progress
// word: a single 64-bit atomic packing (progressCount, doneCount). A
// worker that performed productive work bumps progressCount and clears
// doneCount; an idle worker bumps doneCount, at most once per
// progressCount value, unless a peer advanced progressCount first, in
// which case it retries immediately. All workers exit once doneCount
// reaches the batch count, i.e. once every worker had an idle pass since
// the last productive one.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	graph "github.com/cafeclimber/graph-prototype"
	"github.com/cafeclimber/graph-prototype/internal/pool"
	"github.com/cafeclimber/graph-prototype/log"
	"github.com/cafeclimber/graph-prototype/metric"
)

// ErrNotInitialised is returned by Start when the graph could not reach
// the initialised state.
var ErrNotInitialised = errors.New("graph not initialised")

// State identifies where the scheduler is in its lifecycle.
type State int32

const (
	// Idle is the initial state, before graph connections are resolved.
	Idle State = iota
	// Initialised means all edges are resolved and the scheduler can
	// start.
	Initialised
	// Running means workers are executing blocks.
	Running
	// RequestedStop means a stop was requested and workers are
	// draining.
	RequestedStop
	// RequestedPause means a pause was requested and workers are
	// draining.
	RequestedPause
	// Stopped means execution finished or was stopped.
	Stopped
	// Paused means execution is paused and can be restarted.
	Paused
	// ShuttingDown means the scheduler is tearing down.
	ShuttingDown
	// Error is the sink state after an initialisation or work failure.
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Initialised:
		return "INITIALISED"
	case Running:
		return "RUNNING"
	case RequestedStop:
		return "REQUESTED_STOP"
	case RequestedPause:
		return "REQUESTED_PAUSE"
	case Stopped:
		return "STOPPED"
	case Paused:
		return "PAUSED"
	case ShuttingDown:
		return "SHUTTING_DOWN"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Option configures a scheduler.
type Option func(*base)

// WithPool runs the scheduler on the given worker pool instead of an
// internally owned one.
func WithPool(p *pool.Pool) Option {
	return func(b *base) {
		b.pool = p
		b.ownPool = false
	}
}

// WithMetrics enables the expvar profiling sink for every block.
func WithMetrics() Option {
	return func(b *base) { b.metered = true }
}

// base carries the state shared by all scheduler flavours.
type base struct {
	graph   *graph.Graph
	pool    *pool.Pool
	ownPool bool
	metered bool
	logger  log.Logger

	state    atomic.Int32
	progress atomic.Uint64
	running  atomic.Int64
	stop     atomic.Bool

	mu   sync.Mutex
	cond *sync.Cond
}

func newBase(g *graph.Graph, name string, opts ...Option) *base {
	b := &base{
		graph:   g,
		ownPool: true,
		logger:  log.GetLogger(),
	}
	b.cond = sync.NewCond(&b.mu)
	for _, opt := range opts {
		opt(b)
	}
	if b.pool == nil {
		b.pool = pool.New(name, 0)
	}
	return b
}

// State returns the current scheduler state.
func (b *base) State() State {
	return State(b.state.Load())
}

func (b *base) setState(s State) {
	b.state.Store(int32(s))
}

// Graph returns the graph this scheduler drives.
func (b *base) Graph() *graph.Graph {
	return b.graph
}

// Init resolves the graph's pending connections. On success the
// scheduler moves to Initialised; on failure to Error.
func (b *base) Init() error {
	if b.State() != Idle {
		return nil
	}
	if err := b.graph.Init(); err != nil {
		b.setState(Error)
		return err
	}
	b.graph.ClearConnectionDefinitions()
	b.setState(Initialised)
	return nil
}

// RequestStop asks running workers to stop at the next block boundary.
func (b *base) RequestStop() {
	b.stop.Store(true)
	b.setState(RequestedStop)
	b.broadcast()
}

// RequestPause asks running workers to pause at the next block boundary.
func (b *base) RequestPause() {
	b.stop.Store(true)
	b.setState(RequestedPause)
	b.broadcast()
}

// Stop requests a stop and waits until all workers are drained.
func (b *base) Stop() {
	s := b.State()
	if s == Stopped || s == Error {
		return
	}
	if s == Running {
		b.RequestStop()
	}
	b.WaitDone()
	if b.State() != Error {
		b.setState(Stopped)
	}
}

// Pause requests a pause and waits until all workers are drained.
func (b *base) Pause() {
	s := b.State()
	if s == Paused || s == Error {
		return
	}
	if s == Running {
		b.RequestPause()
	}
	b.WaitDone()
	if b.State() != Error {
		b.setState(Paused)
	}
}

// WaitDone blocks until no worker is running, then resolves the
// requested drain state.
func (b *base) WaitDone() {
	b.mu.Lock()
	for b.running.Load() > 0 {
		b.cond.Wait()
	}
	b.mu.Unlock()

	switch b.State() {
	case RequestedPause:
		b.setState(Paused)
	case Error:
	default:
		b.setState(Stopped)
	}
}

// Reset returns a finished scheduler to the initialised state. Edge
// buffers keep whatever in-flight samples they hold: connections cannot
// be resolved a second time and discarding samples is not this method's
// call to make.
func (b *base) Reset() error {
	switch b.State() {
	case Idle:
		return b.Init()
	case Running, RequestedStop, RequestedPause:
		b.Pause()
		fallthrough
	case Stopped, Paused:
		b.stop.Store(false)
		b.setState(Initialised)
	case ShuttingDown, Initialised, Error:
	}
	return nil
}

// resume moves a paused scheduler back to Initialised, clearing the
// drain request left behind by the pause.
func (b *base) resume() {
	b.stop.Store(false)
	b.setState(Initialised)
}

// Shutdown stops execution and releases the owned worker pool. The
// scheduler is unusable afterwards.
func (b *base) Shutdown() {
	b.Stop()
	b.setState(ShuttingDown)
	if b.ownPool {
		b.pool.Close()
	}
}

func (b *base) broadcast() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}

// waitProgress parks the worker until the progress word moves away from
// the observed value.
func (b *base) waitProgress(observed uint64) {
	b.mu.Lock()
	for b.progress.Load() == observed && !b.stop.Load() {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// setError moves to the Error sink and releases every parked worker.
func (b *base) setError(err error) {
	b.setState(Error)
	b.stop.Store(true)
	if err != nil {
		b.logger.Info(fmt.Sprintf("scheduler error: %v", err))
	}
	b.broadcast()
}

// runOnPool launches one pool worker per job set, each executing workFn
// over its own batch under the progress-word protocol.
func (b *base) runOnPool(jobs [][]graph.Block, workFn func([]graph.Block) graph.WorkResult) {
	b.progress.Store(0)
	b.running.Store(int64(len(jobs)))
	for _, jobset := range jobs {
		jobset := jobset
		b.pool.Execute(func() {
			b.poolWorker(func() graph.WorkResult { return workFn(jobset) }, uint32(len(jobs)))
		})
	}
}

func (b *base) poolWorker(work func() graph.WorkResult, nBatches uint32) {
	var done, progressCount uint32
	counted := false // this worker's idle pass is counted for progressCount
	for done < nBatches && !b.stop.Load() {
		result := work()
		if result.Status == graph.WorkError {
			b.setError(graph.ErrWork)
			break
		}
		if result.Status == graph.WorkOK {
			// this worker made progress: bump the progress count and
			// clear the done count
			for {
				local := b.progress.Load()
				progressCount = uint32(local >> 32)
				done = uint32(local)
				if b.progress.CompareAndSwap(local, uint64(progressCount+1)<<32) {
					break
				}
			}
			progressCount, done, counted = progressCount+1, 0, false
			b.broadcast()
		} else {
			observedCount := progressCount
			var next uint64
			for {
				local := b.progress.Load()
				progressCount = uint32(local >> 32)
				done = uint32(local)
				if progressCount == observedCount && !counted {
					// nothing happened anywhere: count this batch done
					next = uint64(progressCount)<<32 + uint64(done) + 1
				} else {
					// a peer made progress, or this batch is already
					// counted: keep the counts
					next = uint64(progressCount)<<32 + uint64(done)
				}
				if b.progress.CompareAndSwap(local, next) {
					break
				}
			}
			b.broadcast()
			// after a peer's progress, retry without waiting
			counted = progressCount == observedCount
			done = uint32(next)
			if counted && done < nBatches {
				b.waitProgress(next)
			}
		}
	}
	b.running.Add(-1)
	b.broadcast()
}

// workOnce performs one pass over the given blocks, classifying each
// result. It returns WorkOK while any block is productive and WorkDone
// once the whole pass was idle.
func workOnce(blocks []graph.Block, meters map[graph.Block]metric.MeasureFunc) graph.WorkResult {
	somethingHappened := false
	performed := 0
	for _, block := range blocks {
		result := block.Work(graph.MaxBudget)
		performed += result.Performed
		switch result.Status {
		case graph.WorkError:
			return graph.WorkResult{Requested: graph.MaxBudget, Performed: performed, Status: graph.WorkError}
		case graph.WorkInsufficientInput, graph.WorkDone:
			// idle
		case graph.WorkOK, graph.WorkInsufficientOutput:
			somethingHappened = true
		}
		if meters != nil {
			if measure := meters[block]; measure != nil {
				measure(int64(result.Performed))
			}
		}
		if block.IsBlocking() {
			// a blocking block with pending input counts as productive,
			// otherwise an upstream producer on another worker could be
			// mistaken for global quiescence
			available := make([]int, 20)
			if block.AvailableInputSamples(available) > 0 {
				somethingHappened = true
			}
		}
	}
	status := graph.WorkDone
	if somethingHappened {
		status = graph.WorkOK
	}
	return graph.WorkResult{Requested: graph.MaxBudget, Performed: performed, Status: status}
}

// partition splits blocks into at most maxBatches round-robin job sets.
func partition(blocks []graph.Block, maxBatches int) [][]graph.Block {
	n := len(blocks)
	if n == 0 {
		return nil
	}
	k := maxBatches
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	jobs := make([][]graph.Block, k)
	for i := 0; i < k; i++ {
		jobs[i] = make([]graph.Block, 0, n/k+1)
		for j := i; j < n; j += k {
			jobs[i] = append(jobs[i], blocks[j])
		}
	}
	return jobs
}

func (b *base) meters(blocks []graph.Block) map[graph.Block]metric.MeasureFunc {
	if !b.metered {
		return nil
	}
	meters := make(map[graph.Block]metric.MeasureFunc, len(blocks))
	for _, block := range blocks {
		meters[block] = metric.Meter(block)()
	}
	return meters
}
