package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/simgridgo/internal/config"
	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/fsutil"
	"github.com/vk/simgridgo/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL scenario loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire HCL scenario loading process. Each path may
// be a single .hcl file or a directory tree of them; blocks from all files
// merge into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()

	hclFiles, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, nil, err
	}
	if len(hclFiles) == 0 {
		return nil, nil, fmt.Errorf("no .hcl scenario files found under %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.Scenario
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Simulation != nil {
			l.translateSettings(root.Simulation, &model.Settings)
		}
		for _, page := range root.Pages {
			def, err := l.translatePage(page)
			if err != nil {
				return nil, nil, fmt.Errorf("in file %s: %w", file, err)
			}
			if _, dup := model.Pages[def.Name]; dup {
				return nil, nil, fmt.Errorf("page %q defined more than once", def.Name)
			}
			model.Pages[def.Name] = def
		}
		for _, node := range root.Nodes {
			model.Nodes = append(model.Nodes, l.translateNode(node))
		}
	}

	logger.Debug("HCL loading complete.",
		"pages", len(model.Pages), "nodes", len(model.Nodes))
	return model, NewConverter(), nil
}
