// Package dump emits human-readable descriptions of a graph and its
// block settings. It is an adapter around the runtime: nothing in the
// core depends on it.
package dump

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	graph "github.com/cafeclimber/graph-prototype"
	"github.com/cafeclimber/graph-prototype/settings"
)

type graphDoc struct {
	Blocks []blockDoc `yaml:"blocks"`
	Edges  []edgeDoc  `yaml:"edges"`
}

type blockDoc struct {
	Name       string `yaml:"name"`
	UniqueName string `yaml:"unique_name"`
	Blocking   bool   `yaml:"blocking,omitempty"`
}

type edgeDoc struct {
	Src        string `yaml:"src"`
	SrcPort    string `yaml:"src_port"`
	Dst        string `yaml:"dst"`
	DstPort    string `yaml:"dst_port"`
	MinSize    int    `yaml:"min_size,omitempty"`
	BufferSize int    `yaml:"buffer_size"`
}

// Graph writes the graph's blocks and resolved edges as YAML.
func Graph(w io.Writer, g *graph.Graph) error {
	doc := graphDoc{}
	for _, b := range g.Blocks() {
		doc.Blocks = append(doc.Blocks, blockDoc{
			Name:       b.Name(),
			UniqueName: b.UniqueName(),
			Blocking:   b.IsBlocking(),
		})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, edgeDoc{
			Src:        e.Src.UniqueName(),
			SrcPort:    e.SrcPort,
			Dst:        e.Dst.UniqueName(),
			DstPort:    e.DstPort,
			MinSize:    e.MinSize,
			BufferSize: e.BufferSize,
		})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Settings writes a block's current parameter values as YAML, keys
// sorted.
func Settings(w io.Writer, s *settings.Settings) error {
	values := s.Get()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	doc := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, yaml.MapItem{Key: k, Value: values[k]})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Tree renders the graph topology as an indented tree rooted at the
// source blocks. Cycles are cut at the first revisit.
func Tree(g *graph.Graph) string {
	adjacency := make(map[graph.Block][]graph.Block)
	reached := make(map[graph.Block]bool)
	for _, e := range g.Edges() {
		adjacency[e.Src] = append(adjacency[e.Src], e.Dst)
		reached[e.Dst] = true
	}

	var b strings.Builder
	visited := make(map[graph.Block]bool)
	var render func(blk graph.Block, depth int)
	render = func(blk graph.Block, depth int) {
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), blk.UniqueName())
		if visited[blk] {
			return
		}
		visited[blk] = true
		for _, dst := range adjacency[blk] {
			render(dst, depth+1)
		}
	}
	for _, blk := range g.Blocks() {
		if !reached[blk] {
			render(blk, 0)
		}
	}
	return b.String()
}
