// Package plugin defines the ABI surface through which externally built
// block collections are published to a host. Only the ABI signature is
// modelled; the loading mechanics are out of scope.
package plugin

import (
	"errors"
	"fmt"

	graph "github.com/cafeclimber/graph-prototype"
)

// CurrentABIVersion is the plugin ABI version this host speaks.
const CurrentABIVersion uint8 = 1

// ErrUnknownBlockType is returned when a factory for the requested block
// type is not registered.
var ErrUnknownBlockType = errors.New("unknown block type")

// Metadata describes a plugin to the host.
type Metadata struct {
	Name    string
	Author  string
	License string
	Version string
}

// Plugin is the contract a plugin exposes to the host.
type Plugin interface {
	ABIVersion() uint8
	Metadata() Metadata
	ProvidedBlocks() []string
	CreateBlock(name, blockType string, params map[string]interface{}) (graph.Block, error)
}

// Base is the canonical Plugin implementation backed by a block
// registry.
type Base struct {
	metadata Metadata
	registry Registry
}

// New returns a plugin with the given metadata and an empty registry.
func New(metadata Metadata) *Base {
	return &Base{metadata: metadata}
}

// ABIVersion returns CurrentABIVersion.
func (p *Base) ABIVersion() uint8 {
	return CurrentABIVersion
}

// Metadata returns the plugin description.
func (p *Base) Metadata() Metadata {
	return p.metadata
}

// ProvidedBlocks lists the block types this plugin can build.
func (p *Base) ProvidedBlocks() []string {
	return p.registry.ProvidedBlocks()
}

// CreateBlock builds a named block of the given type.
func (p *Base) CreateBlock(name, blockType string, params map[string]interface{}) (graph.Block, error) {
	return p.registry.CreateBlock(name, blockType, params)
}

// AddBlockType registers a factory for blockType.
func (p *Base) AddBlockType(blockType string, factory Factory) {
	p.registry.AddBlockType(blockType, factory)
}

func (p *Base) String() string {
	return fmt.Sprintf("%s %s (%s, %s)", p.metadata.Name, p.metadata.Version, p.metadata.Author, p.metadata.License)
}
