package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/simgridgo/internal/config"
	"github.com/vk/simgridgo/internal/ctxlog"
)

// ValidateScenario cross-checks a loaded scenario model against the
// registry: every node kind and component must be registered, node names
// and parent references must be coherent, and every declared resource key
// must name a page the scenario defines. All problems are collected into a
// single error.
func (r *Registry) ValidateScenario(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, page := range model.Pages {
		for _, comp := range page.Components {
			if _, ok := r.components[comp]; !ok {
				errs = append(errs, fmt.Sprintf("page '%s': component '%s' is not registered", page.Name, comp))
			}
		}
	}

	names := make(map[string]struct{}, len(model.Nodes))
	for _, node := range model.Nodes {
		if node.Name == "" {
			errs = append(errs, fmt.Sprintf("node of kind '%s' has an empty instance name", node.Kind))
			continue
		}
		if _, dup := names[node.Name]; dup {
			errs = append(errs, fmt.Sprintf("node '%s' is declared more than once", node.Name))
		}
		names[node.Name] = struct{}{}
	}

	for _, node := range model.Nodes {
		if _, ok := r.kinds[node.Kind]; !ok {
			errs = append(errs, fmt.Sprintf("node '%s': kind '%s' is not registered", node.Name, node.Kind))
		}
		if node.Parent != "" {
			if _, ok := names[node.Parent]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': parent '%s' is not declared", node.Name, node.Parent))
			}
		}
		for _, key := range append(append([]string{}, node.Reads...), node.Writes...) {
			if _, ok := model.Pages[key]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': resource '%s' does not name a declared page", node.Name, key))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("scenario validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	logger.Debug("Scenario validation passed.",
		"pages", len(model.Pages), "nodes", len(model.Nodes))
	return nil
}
