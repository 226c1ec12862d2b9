package mock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	graph "github.com/cafeclimber/graph-prototype"
	"github.com/cafeclimber/graph-prototype/mock"
)

func pipeline(t *testing.T, limit int) (*graph.Graph, *mock.Source, *mock.Sink) {
	t.Helper()
	g := graph.New()
	src := mock.NewSource(limit)
	sink := mock.NewSink()
	graph.Connect(g, src, src.Output, sink, sink.Input, 256)
	require.NoError(t, g.Init())
	return g, src, sink
}

func TestSourceEmitsUntilLimit(t *testing.T) {
	_, src, sink := pipeline(t, 100)

	emitted := 0
	for {
		result := src.Work(graph.MaxBudget)
		if result.Status == graph.WorkDone {
			break
		}
		require.Equal(t, graph.WorkOK, result.Status)
		emitted += result.Performed

		drained := sink.Work(graph.MaxBudget)
		require.Equal(t, graph.WorkOK, drained.Status)
	}
	assert.Equal(t, 100, emitted)
	assert.Equal(t, int64(99*100/2), sink.Sum)
	assert.Equal(t, []int64{0, 1, 2}, sink.Values[:3])

	// exhausted source keeps reporting done
	assert.Equal(t, graph.WorkDone, src.Work(graph.MaxBudget).Status)
}

func TestSinkWithoutInputIsStarved(t *testing.T) {
	_, _, sink := pipeline(t, 10)
	assert.Equal(t, graph.WorkInsufficientInput, sink.Work(graph.MaxBudget).Status)
}

func TestTransformAppliesFn(t *testing.T) {
	g := graph.New()
	src := mock.NewSource(8)
	square := mock.NewTransform(func(v int64) int64 { return v * v })
	sink := mock.NewSink()
	graph.Connect(g, src, src.Output, square, square.Input, 64)
	graph.Connect(g, square, square.Output, sink, sink.Input, 64)
	require.NoError(t, g.Init())

	require.Equal(t, graph.WorkInsufficientInput, square.Work(graph.MaxBudget).Status)

	require.Equal(t, graph.WorkOK, src.Work(graph.MaxBudget).Status)
	require.Equal(t, graph.WorkOK, square.Work(graph.MaxBudget).Status)
	require.Equal(t, graph.WorkOK, sink.Work(graph.MaxBudget).Status)

	assert.Equal(t, []int64{0, 1, 4, 9, 16, 25, 36, 49}, sink.Values)
	assert.Equal(t, 8, square.Counter.Samples)

	counts := make([]int, 4)
	assert.Equal(t, 0, square.AvailableInputSamples(counts))
}

func TestWorkBudgetIsHonoured(t *testing.T) {
	_, src, _ := pipeline(t, 100)
	result := src.Work(10)
	assert.Equal(t, 10, result.Performed)
}

func TestSettingsAppliedAtWorkStart(t *testing.T) {
	_, src, _ := pipeline(t, 1000)

	unrecognised := src.Settings().Set(map[string]interface{}{
		"chunk_size": 5,
		"bogus":      1,
	})
	assert.Contains(t, unrecognised, "bogus")
	assert.Equal(t, 64, src.ChunkSize)

	result := src.Work(graph.MaxBudget)
	assert.Equal(t, 5, src.ChunkSize)
	assert.Equal(t, 5, result.Performed)
}

func TestSourceBlockedOnFullOutput(t *testing.T) {
	g := graph.New()
	src := mock.NewSource(1 << 20)
	src.ChunkSize = 1 << 20
	sink := mock.NewSink()
	sink.Discard = true
	graph.Connect(g, src, src.Output, sink, sink.Input, 64)
	require.NoError(t, g.Init())

	size := src.Output.Buffer().Size()

	// first call fills the buffer completely
	first := src.Work(graph.MaxBudget)
	require.Equal(t, graph.WorkOK, first.Status)
	assert.Equal(t, size, first.Performed)

	// with the buffer full the source reports insufficient output
	assert.Equal(t, graph.WorkInsufficientOutput, src.Work(graph.MaxBudget).Status)

	require.Equal(t, graph.WorkOK, sink.Work(graph.MaxBudget).Status)
	assert.Equal(t, graph.WorkOK, src.Work(graph.MaxBudget).Status)
}
