package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of a whole scenario:
// simulation settings, the pages to create, and the node tree to build.
type Model struct {
	Settings Settings
	Pages    map[string]*PageDef
	Nodes    []*NodeDef
}

// Settings holds the scenario-wide simulation parameters.
type Settings struct {
	// Frames is how many frames a run executes; zero runs until cancelled.
	Frames uint64
	// Workers bounds concurrent node updates per frame; zero picks the
	// engine default.
	Workers int
	// EntityCapacity sizes the shared entity registry; zero picks the
	// store default.
	EntityCapacity int
	// Checked enables the deep cross-validation of every token access.
	Checked bool
}

// PageDef is the format-agnostic representation of a `page` block.
type PageDef struct {
	Name       string
	Components []string
	ChunkSize  int
	MaxChunks  int
	AutoPack   bool
}

// NodeDef is the format-agnostic representation of a `node` block. Arguments
// stay as raw expressions; the Converter decodes them against each kind's
// input struct when the tree is built.
type NodeDef struct {
	Kind         string
	Name         string
	Parent       string
	Priority     int
	PaceEvery    uint64
	Reads        []string
	Writes       []string
	UpdateAfter  []string
	UpdateBefore []string
	Arguments    map[string]hcl.Expression
}

// NewModel returns an empty model with its maps initialized.
func NewModel() *Model {
	return &Model{Pages: make(map[string]*PageDef)}
}
