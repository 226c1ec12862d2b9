package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	graph "github.com/cafeclimber/graph-prototype"
	"github.com/cafeclimber/graph-prototype/mock"
	"github.com/cafeclimber/graph-prototype/plugin"
)

func TestPluginMetadataAndABI(t *testing.T) {
	p := plugin.New(plugin.Metadata{
		Name:    "good base blocks",
		Author:  "unknown",
		License: "LGPL",
		Version: "1.0",
	})

	assert.Equal(t, plugin.CurrentABIVersion, p.ABIVersion())
	assert.Equal(t, "good base blocks", p.Metadata().Name)
	assert.Empty(t, p.ProvidedBlocks())
}

func TestRegistryRoundTrip(t *testing.T) {
	p := plugin.New(plugin.Metadata{Name: "test"})
	p.AddBlockType("counting_source", func(name string, params map[string]interface{}) (graph.Block, error) {
		limit := 0
		if v, ok := params["limit"].(int); ok {
			limit = v
		}
		return mock.NewSource(limit), nil
	})
	p.AddBlockType("summing_sink", func(name string, params map[string]interface{}) (graph.Block, error) {
		return mock.NewSink(), nil
	})

	assert.Equal(t, []string{"counting_source", "summing_sink"}, p.ProvidedBlocks())

	b, err := p.CreateBlock("src", "counting_source", map[string]interface{}{"limit": 10})
	require.NoError(t, err)
	assert.Equal(t, "mock.Source", b.Name())

	_, err = p.CreateBlock("x", "unknown", nil)
	assert.ErrorIs(t, err, plugin.ErrUnknownBlockType)
}

func TestPluginBuiltGraphRuns(t *testing.T) {
	p := plugin.New(plugin.Metadata{Name: "test"})
	p.AddBlockType("counting_source", func(name string, params map[string]interface{}) (graph.Block, error) {
		return mock.NewSource(100), nil
	})
	p.AddBlockType("summing_sink", func(name string, params map[string]interface{}) (graph.Block, error) {
		return mock.NewSink(), nil
	})

	src, err := p.CreateBlock("src", "counting_source", nil)
	require.NoError(t, err)
	sink, err := p.CreateBlock("sink", "summing_sink", nil)
	require.NoError(t, err)

	// plugin-built blocks connect by port name
	g := graph.New()
	g.ConnectByName(src, "out", sink, "in", 256)
	require.NoError(t, g.Init())
	require.Len(t, g.Edges(), 1)
}

func TestProcessWideInstance(t *testing.T) {
	plugin.SetMetadata(plugin.Metadata{Name: "host-wide", Version: "0.1"})
	assert.Same(t, plugin.Instance(), plugin.Make())

	made := plugin.Make()
	assert.Equal(t, "host-wide", made.Metadata().Name)
	plugin.Free(made) // the plugin owns its instance; Free is a handshake
	assert.Equal(t, "host-wide", plugin.Instance().Metadata().Name)
}
