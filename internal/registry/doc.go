// Package registry holds the compiled Go side of a scenario: node kinds and
// component types registered by built-in (or embedding) modules. A scenario
// model is validated against the registry before any store or node tree is
// built, so mismatches between configuration and code surface as one upfront
// error instead of a mid-run failure.
package registry
