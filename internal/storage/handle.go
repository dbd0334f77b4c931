package storage

// EntityHandle identifies one entity for the lifetime of a Store, surviving
// id reuse. It packs a 32-bit slot index in the low bits and a 32-bit version
// in the high bits; the same index addresses a different entity once the
// registry advances the slot's version.
type EntityHandle uint64

// packHandle builds a handle from its index and version halves.
func packHandle(index, version uint32) EntityHandle {
	return EntityHandle(uint64(version)<<32 | uint64(index))
}

// Index returns the registry slot index portion of the handle.
func (h EntityHandle) Index() uint32 {
	return uint32(h)
}

// Version returns the generation portion of the handle.
func (h EntityHandle) Version() uint32 {
	return uint32(h >> 32)
}

// SlotRef is a type-independent address within a Page. Every column of a Page
// shares the same slotting, so one SlotRef locates the entity's data in all
// of them.
type SlotRef struct {
	Chunk int
	Slot  int
}

// linear flattens the reference into a single slot index for a given chunk
// capacity.
func (r SlotRef) linear(chunkSize int) int {
	return r.Chunk*chunkSize + r.Slot
}

// slotRefAt is the inverse of linear.
func slotRefAt(index, chunkSize int) SlotRef {
	return SlotRef{Chunk: index / chunkSize, Slot: index % chunkSize}
}
