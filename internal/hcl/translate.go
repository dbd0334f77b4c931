// This file contains the logic for translating HCL schema structs into the
// format-agnostic scenario model defined in the config package.

package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/simgridgo/internal/config"
	"github.com/vk/simgridgo/internal/schema"
)

// translateSettings merges a `simulation` block into the model settings.
// Only attributes the block actually sets are applied, so several files may
// each contribute a part.
func (l *Loader) translateSettings(s *schema.Simulation, out *config.Settings) {
	if s.Frames != nil {
		out.Frames = *s.Frames
	}
	if s.Workers != nil {
		out.Workers = *s.Workers
	}
	if s.EntityCapacity != nil {
		out.EntityCapacity = *s.EntityCapacity
	}
	if s.Checked != nil {
		out.Checked = *s.Checked
	}
}

// translatePage converts the HCL-specific page schema into the agnostic
// model.
func (l *Loader) translatePage(p *schema.Page) (*config.PageDef, error) {
	if len(p.Components) == 0 {
		return nil, fmt.Errorf("page %q declares no components", p.Name)
	}
	def := &config.PageDef{
		Name:       p.Name,
		Components: p.Components,
	}
	if p.ChunkSize != nil {
		if *p.ChunkSize <= 0 {
			return nil, fmt.Errorf("page %q: chunk_size must be positive, got %d", p.Name, *p.ChunkSize)
		}
		def.ChunkSize = *p.ChunkSize
	}
	if p.MaxChunks != nil {
		if *p.MaxChunks <= 0 {
			return nil, fmt.Errorf("page %q: max_chunks must be positive, got %d", p.Name, *p.MaxChunks)
		}
		def.MaxChunks = *p.MaxChunks
	}
	if p.AutoPack != nil {
		def.AutoPack = *p.AutoPack
	}
	return def, nil
}

// translateNode converts the HCL-specific node schema into the agnostic
// model.
func (l *Loader) translateNode(n *schema.Node) *config.NodeDef {
	def := &config.NodeDef{
		Kind:         n.Kind,
		Name:         n.Name,
		Parent:       n.Parent,
		Reads:        n.Reads,
		Writes:       n.Writes,
		UpdateAfter:  n.UpdateAfter,
		UpdateBefore: n.UpdateBefore,
		Arguments:    l.extractBodyAttributes(n.Arguments),
	}
	if n.Priority != nil {
		def.Priority = *n.Priority
	}
	if n.PaceEvery != nil {
		def.PaceEvery = *n.PaceEvery
	}
	return def
}

func (l *Loader) extractBodyAttributes(args *schema.NodeArgs) map[string]hcl.Expression {
	if args == nil || args.Body == nil {
		return nil
	}
	attrs, _ := args.Body.JustAttributes()
	if len(attrs) == 0 {
		return nil
	}
	exprMap := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap
}
