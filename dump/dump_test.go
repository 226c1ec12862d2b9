package dump_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	graph "github.com/cafeclimber/graph-prototype"
	"github.com/cafeclimber/graph-prototype/dump"
	"github.com/cafeclimber/graph-prototype/mock"
	"github.com/cafeclimber/graph-prototype/settings"
)

func buildGraph(t *testing.T) (*graph.Graph, *mock.Source, *mock.Sink) {
	t.Helper()
	g := graph.New()
	src := mock.NewSource(100)
	sink := mock.NewSink()
	graph.Connect(g, src, src.Output, sink, sink.Input, 1024)
	require.NoError(t, g.Init())
	return g, src, sink
}

// assertEqualText fails with a unified diff, which reads better than a
// raw string dump for multi-line documents.
func assertEqualText(t *testing.T, expected, actual string) {
	t.Helper()
	if expected == actual {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	require.NoError(t, err)
	t.Fatalf("documents differ:\n%s", diff)
}

func TestGraphDump(t *testing.T) {
	g, src, sink := buildGraph(t)

	var buf bytes.Buffer
	require.NoError(t, dump.Graph(&buf, g))

	var doc struct {
		Blocks []struct {
			Name       string `yaml:"name"`
			UniqueName string `yaml:"unique_name"`
		} `yaml:"blocks"`
		Edges []struct {
			Src        string `yaml:"src"`
			Dst        string `yaml:"dst"`
			SrcPort    string `yaml:"src_port"`
			DstPort    string `yaml:"dst_port"`
			BufferSize int    `yaml:"buffer_size"`
		} `yaml:"edges"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc), spew.Sdump(buf.String()))

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "mock.Source", doc.Blocks[0].Name)
	assert.Equal(t, "mock.Sink", doc.Blocks[1].Name)

	require.Len(t, doc.Edges, 1)
	assert.Equal(t, src.UniqueName(), doc.Edges[0].Src)
	assert.Equal(t, sink.UniqueName(), doc.Edges[0].Dst)
	assert.Equal(t, "out", doc.Edges[0].SrcPort)
	assert.Equal(t, "in", doc.Edges[0].DstPort)
	assert.GreaterOrEqual(t, doc.Edges[0].BufferSize, 1024)
}

func TestSettingsDump(t *testing.T) {
	type tunable struct {
		Gain       float64
		SampleRate int
	}
	s, err := settings.New(&tunable{Gain: 0.5, SampleRate: 48000})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dump.Settings(&buf, s))

	assertEqualText(t, "gain: 0.5\nsample_rate: 48000\n", buf.String())
}

func TestTree(t *testing.T) {
	g, src, sink := buildGraph(t)

	tree := dump.Tree(g)
	lines := strings.Split(strings.TrimRight(tree, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, src.UniqueName(), lines[0])
	assert.Equal(t, "  "+sink.UniqueName(), lines[1])
}
