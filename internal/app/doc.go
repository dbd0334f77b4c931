// Package app wires the engine together: it configures the logger, loads
// and validates the scenario, registers the built-in modules, builds the
// store and node tree, and drives the simulation manager for the configured
// number of frames.
package app
