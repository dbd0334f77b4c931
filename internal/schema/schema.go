// Package schema holds the HCL block structures a scenario file decodes
// into. The structures mirror the file syntax one to one; translation into
// the format-agnostic config model happens in the hcl package.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// NodeArgs represents the content of the 'arguments' block within a node.
// The attributes stay undecoded until the node kind's input struct is known.
type NodeArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Simulation represents the optional `simulation` block with scenario-wide
// settings.
type Simulation struct {
	Frames         *uint64 `hcl:"frames,optional"`
	Workers        *int    `hcl:"workers,optional"`
	EntityCapacity *int    `hcl:"entity_capacity,optional"`
	Checked        *bool   `hcl:"checked,optional"`
}

// Page represents a `page` block: one archetype store with a fixed component
// set.
type Page struct {
	Name       string   `hcl:"name,label"`
	Components []string `hcl:"components"`
	ChunkSize  *int     `hcl:"chunk_size,optional"`
	MaxChunks  *int     `hcl:"max_chunks,optional"`
	AutoPack   *bool    `hcl:"auto_pack,optional"`
}

// Node represents a `node` block: one schedulable instance of a registered
// node kind.
type Node struct {
	Kind         string    `hcl:"kind,label"`
	Name         string    `hcl:"instance_name,label"`
	Parent       string    `hcl:"parent,optional"`
	Priority     *int      `hcl:"priority,optional"`
	PaceEvery    *uint64   `hcl:"pace_every,optional"`
	Reads        []string  `hcl:"reads,optional"`
	Writes       []string  `hcl:"writes,optional"`
	UpdateAfter  []string  `hcl:"update_after,optional"`
	UpdateBefore []string  `hcl:"update_before,optional"`
	Arguments    *NodeArgs `hcl:"arguments,block"`
}

// Scenario represents the top-level structure of a scenario file.
type Scenario struct {
	Simulation *Simulation `hcl:"simulation,block"`
	Pages      []*Page     `hcl:"page,block"`
	Nodes      []*Node     `hcl:"node,block"`
	Body       hcl.Body    `hcl:",remain"`
}
