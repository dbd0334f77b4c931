package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific scenario loader.
type Loader interface {
	// Load reads scenario files from the given paths, translates them into
	// the format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the interface for a format-specific data binding and type
// conversion implementation. It bridges raw scenario arguments and the Go
// input structs declared by node kinds.
type Converter interface {
	// DecodeArguments evaluates the raw argument expressions of a node
	// block and populates the kind's input struct, honoring its field tags.
	DecodeArguments(
		ctx context.Context,
		inputStruct any,
		args map[string]hcl.Expression,
		evalCtx *hcl.EvalContext,
	) error

	// ToCtyValue converts a native Go value into its equivalent cty.Value
	// for the engine's internal use.
	ToCtyValue(v any) (cty.Value, error)
}
