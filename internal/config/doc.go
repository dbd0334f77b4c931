// Package config defines the format-agnostic scenario model for the engine,
// along with the core interfaces (Loader, Converter) for loading and
// interpreting scenario files from various sources.
//
// The `config.Model` is the single source of truth for the `registry` and
// `app` packages when they build the store and the node tree. Concrete
// implementations of the interfaces, such as for HCL, are provided in
// separate packages.
package config
