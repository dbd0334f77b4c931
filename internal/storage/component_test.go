package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentIdsAreStable(t *testing.T) {
	reg := NewComponentRegistry()

	pos := RegisterComponent[position](reg, "position")
	vel := RegisterComponent[velocity](reg, "velocity")
	assert.Equal(t, ComponentID(0), pos.ID())
	assert.Equal(t, ComponentID(1), vel.ID())

	// Re-registering the same name and type returns the same id.
	again := RegisterComponent[position](reg, "position")
	assert.Equal(t, pos.ID(), again.ID())
	assert.Equal(t, 2, reg.Len())
}

func TestComponentTypeMismatchPanics(t *testing.T) {
	reg := NewComponentRegistry()
	RegisterComponent[position](reg, "position")

	assert.Panics(t, func() {
		RegisterComponent[velocity](reg, "position")
	})
}

func TestLookupComponent(t *testing.T) {
	reg := NewComponentRegistry()
	pos := RegisterComponent[position](reg, "position")

	got, err := LookupComponent[position](reg, "position")
	require.NoError(t, err)
	assert.Equal(t, pos.ID(), got.ID())

	_, err = LookupComponent[position](reg, "missing")
	assert.Error(t, err)

	_, err = LookupComponent[velocity](reg, "position")
	var mismatch ComponentMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

type countingAllocator struct {
	allocated int
	released  int
}

func (a *countingAllocator) Allocate(count int) []position {
	a.allocated++
	return make([]position, count)
}

func (a *countingAllocator) Release(buf []position) {
	a.released++
}

func TestChunkArraysBorrowFromAllocator(t *testing.T) {
	alloc := &countingAllocator{}
	store := NewStore(StoreOptions{EntityCapacity: 64})
	pos := RegisterComponentWithAllocator[position](store.Components(), "position", alloc)

	page, err := store.CreatePage("particles", PageOptions{ChunkSize: 4}, pos)
	require.NoError(t, err)

	tokens, err := page.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, 2, alloc.allocated)

	// Emptying the top chunk and packing returns its array.
	require.NoError(t, page.Free(tokens[4], tokens[5], tokens[6], tokens[7]))
	_, err = page.Pack(4)
	require.NoError(t, err)
	assert.Equal(t, 1, alloc.released)

	page.Dispose()
	assert.Equal(t, alloc.allocated, alloc.released)
}
