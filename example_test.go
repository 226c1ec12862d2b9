package graph_test

import (
	"fmt"

	graph "github.com/cafeclimber/graph-prototype"
	"github.com/cafeclimber/graph-prototype/mock"
	"github.com/cafeclimber/graph-prototype/scheduler"
)

// Build a two-block graph, run it on the simple scheduler and read the
// result out of the sink.
func Example() {
	g := graph.New()
	src := mock.NewSource(10)
	sink := mock.NewSink()
	graph.Connect(g, src, src.Output, sink, sink.Input, 64)

	s := scheduler.NewSimple(g, scheduler.SingleThreaded)
	defer s.Shutdown()
	if err := s.RunAndWait(); err != nil {
		fmt.Println("run:", err)
		return
	}

	fmt.Println(s.State(), sink.Sum)
	// Output: STOPPED 45
}
