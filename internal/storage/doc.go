// Package storage implements the chunked, columnar entity storage engine.
//
// Entities live inside Pages. A Page holds every entity sharing one fixed
// component-type set, laid out as one contiguous column per component type.
// Each column is split into fixed-capacity Chunks so the backing arrays stay
// cache-friendly and can be recycled from the tail as the Page shrinks.
//
// Entities are addressed through generation-checked handles. An EntityHandle
// survives id reuse via its version bits; an AccessToken is a short-lived
// capability locating one entity's components within one Page generation.
// Packing (defragmentation) closes the gaps left by freed slots and bumps the
// Page's pack version, which invalidates every previously issued token for
// that Page. Callers re-acquire tokens through Page.Token or Store.Resolve.
//
// Page mutation is not synchronized internally. Callers serialize access to a
// given Page through the scheduler's declared resource locks.
package storage
