package storage

// column is the type-erased contract a Page uses to keep all of its columns
// in lock-step. Every column of a Page has the same chunk count and chunk
// capacity; alloc, free, and pack drive them through this interface.
type column interface {
	// appendChunk grows the column by one fixed-capacity chunk.
	appendChunk()
	// dropTail recycles chunks from the tail until keep chunks remain.
	dropTail(keep int)
	// chunkCount reports the current number of chunks.
	chunkCount() int
	// initSlot zeroes a freshly allocated slot.
	initSlot(ref SlotRef)
	// freeSlot releases a slot's value. Column memory is disjoint across
	// component types, so freeSlot is safe to call in parallel per column.
	freeSlot(ref SlotRef)
	// moveSlot copies src's value into dst during packing. src is cleared.
	moveSlot(dst, src SlotRef)
	// dispose releases every chunk back to the allocator.
	dispose()
}

// Chunk is one fixed-capacity contiguous array for one component type. A
// Chunk is exclusively owned by one column of one Page; its backing array is
// borrowed from the column's Allocator and returned when the chunk is
// recycled from the tail.
type Chunk[T any] struct {
	data []T
	live int
}

// Live returns the number of occupied slots in the chunk.
func (c *Chunk[T]) Live() int { return c.live }

// Data returns the chunk's backing array. Indexing beyond the page's live
// boundary reads zeroed or stale slots.
func (c *Chunk[T]) Data() []T { return c.data }

// Column is the per-component-type chunk list of one Page.
type Column[T any] struct {
	chunkSize int
	alloc     Allocator[T]
	chunks    []Chunk[T]
}

// ChunkAt returns the chunk at index i.
func (c *Column[T]) ChunkAt(i int) *Chunk[T] { return &c.chunks[i] }

// Slot returns a pointer to the value stored at ref. The pointer is only
// stable until the Page next packs or recycles chunks.
func (c *Column[T]) Slot(ref SlotRef) *T {
	return &c.chunks[ref.Chunk].data[ref.Slot]
}

func (c *Column[T]) appendChunk() {
	c.chunks = append(c.chunks, Chunk[T]{data: c.alloc.Allocate(c.chunkSize)})
}

func (c *Column[T]) dropTail(keep int) {
	for i := len(c.chunks) - 1; i >= keep; i-- {
		c.alloc.Release(c.chunks[i].data)
		c.chunks[i].data = nil
	}
	c.chunks = c.chunks[:keep]
}

func (c *Column[T]) chunkCount() int { return len(c.chunks) }

func (c *Column[T]) initSlot(ref SlotRef) {
	var zero T
	ch := &c.chunks[ref.Chunk]
	ch.data[ref.Slot] = zero
	ch.live++
}

func (c *Column[T]) freeSlot(ref SlotRef) {
	var zero T
	ch := &c.chunks[ref.Chunk]
	ch.data[ref.Slot] = zero
	ch.live--
}

func (c *Column[T]) moveSlot(dst, src SlotRef) {
	var zero T
	from := &c.chunks[src.Chunk]
	to := &c.chunks[dst.Chunk]
	to.data[dst.Slot] = from.data[src.Slot]
	to.live++
	from.data[src.Slot] = zero
	from.live--
}

func (c *Column[T]) dispose() {
	c.dropTail(0)
}
