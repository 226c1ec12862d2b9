package graph

import (
	"fmt"

	"github.com/cafeclimber/graph-prototype/log"
)

// Edge is a resolved connection between two block ports.
type Edge struct {
	Src        Block
	SrcPort    string
	Dst        Block
	DstPort    string
	MinSize    int
	BufferSize int
}

// ConnectionDefinition is a pending connection captured by Connect. It
// allocates the edge buffer and attaches the ports when executed during
// Init.
type ConnectionDefinition func() (Edge, error)

// Graph owns blocks and edges. Blocks are identified by address; the
// graph keeps them alive until scheduler teardown.
type Graph struct {
	blocks []Block
	defs   []ConnectionDefinition
	edges  []Edge
	logger log.Logger
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{logger: log.GetLogger()}
}

// Add hands a block over to the graph. Adding the same block twice is a
// no-op.
func (g *Graph) Add(b Block) {
	for _, existing := range g.blocks {
		if existing == b {
			return
		}
	}
	g.blocks = append(g.blocks, b)
}

// Blocks returns the owned blocks in insertion order.
func (g *Graph) Blocks() []Block {
	return g.blocks
}

// Edges returns the resolved edges.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// ConnectionDefinitions returns the pending, unresolved connections.
func (g *Graph) ConnectionDefinitions() []ConnectionDefinition {
	return g.defs
}

// ClearConnectionDefinitions drops the pending connections; called by
// schedulers once Init resolved them all.
func (g *Graph) ClearConnectionDefinitions() {
	g.defs = nil
}

// Connect declares a typed connection from an output port of src to an
// input port of dst with a requested minimum buffer size. The connection
// is resolved lazily during Init.
func Connect[T any](g *Graph, src Block, out *Out[T], dst Block, in *In[T], minSize int) {
	g.Add(src)
	g.Add(dst)
	g.defs = append(g.defs, func() (Edge, error) {
		if err := out.lace(in, minSize); err != nil {
			return Edge{}, fmt.Errorf("%s.%s -> %s.%s: %w",
				src.UniqueName(), out.PortName(), dst.UniqueName(), in.PortName(), err)
		}
		return Edge{
			Src:        src,
			SrcPort:    out.PortName(),
			Dst:        dst,
			DstPort:    in.PortName(),
			MinSize:    minSize,
			BufferSize: out.Buffer().Size(),
		}, nil
	})
}

// ConnectByName declares a connection resolving both ports dynamically.
// Both blocks must implement PortProvider; type or direction mismatches
// surface as ErrPortMismatch during Init.
func (g *Graph) ConnectByName(src Block, srcPort string, dst Block, dstPort string, minSize int) {
	g.Add(src)
	g.Add(dst)
	g.defs = append(g.defs, func() (Edge, error) {
		out, err := findPort(src, srcPort, PortOutput)
		if err != nil {
			return Edge{}, err
		}
		in, err := findPort(dst, dstPort, PortInput)
		if err != nil {
			return Edge{}, err
		}
		if err = out.lace(in, minSize); err != nil {
			return Edge{}, fmt.Errorf("%s.%s -> %s.%s: %w",
				src.UniqueName(), srcPort, dst.UniqueName(), dstPort, err)
		}
		return Edge{
			Src:        src,
			SrcPort:    srcPort,
			Dst:        dst,
			DstPort:    dstPort,
			MinSize:    minSize,
			BufferSize: bufferSizeOf(out),
		}, nil
	})
}

func findPort(b Block, name string, kind PortKind) (Port, error) {
	provider, ok := b.(PortProvider)
	if !ok {
		return nil, fmt.Errorf("%w: block %q does not expose ports by name",
			ErrPortMismatch, b.UniqueName())
	}
	ports := provider.OutputPorts()
	if kind == PortInput {
		ports = provider.InputPorts()
	}
	for _, p := range ports {
		if p.PortName() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: block %q has no %s port %q",
		ErrPortMismatch, b.UniqueName(), kind, name)
}

// bufferSizeOf reports the allocated buffer size of an output port via
// its BufferSize method, 0 when the port has none.
func bufferSizeOf(p Port) int {
	if s, ok := p.(interface{ BufferSize() int }); ok {
		return s.BufferSize()
	}
	return 0
}

// Init executes every pending connection definition. The graph
// initialises only if all definitions succeed; the first failure is
// returned and no further definitions run. Init does not roll back: the
// connections resolved before the failing one stay connected and their
// edges stay recorded.
func (g *Graph) Init() error {
	for _, def := range g.defs {
		edge, err := def()
		if err != nil {
			return err
		}
		g.edges = append(g.edges, edge)
		g.logger.Debug(fmt.Sprintf("resolved edge %s.%s -> %s.%s (buffer %d)",
			edge.Src.UniqueName(), edge.SrcPort, edge.Dst.UniqueName(), edge.DstPort, edge.BufferSize))
	}
	g.defs = nil
	return nil
}
