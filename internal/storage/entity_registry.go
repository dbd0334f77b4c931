package storage

// registrySlot is one dense slot of the EntityRegistry. The stored token
// mirrors the entity's current storage location and is kept up to date by the
// owning Page across allocation and packing.
type registrySlot struct {
	alive   bool
	version uint32
	token   AccessToken
}

// EntityRegistry maps generation-checked handles to current storage
// locations through a fixed-capacity, pre-sized slot array. It never grows;
// exhausting it is a CapacityError.
type EntityRegistry struct {
	slots []registrySlot
	// free holds recycled slot indices, popped from the tail.
	free []uint32
	// next is the low-water mark of never-yet-used slots.
	next uint32
	// version is the generation counter. It advances once per Alloc call;
	// every entity allocated within one call shares the resulting version,
	// so uniqueness rests on index+version together, not version alone.
	version uint32
}

// NewEntityRegistry returns a registry pre-sized for capacity entities.
func NewEntityRegistry(capacity int) *EntityRegistry {
	return &EntityRegistry{
		slots: make([]registrySlot, capacity),
		free:  make([]uint32, 0, capacity),
	}
}

// Capacity returns the fixed slot count.
func (r *EntityRegistry) Capacity() int { return len(r.slots) }

// Live returns the number of currently allocated slots.
func (r *EntityRegistry) Live() int {
	return int(r.next) - len(r.free)
}

// Alloc reserves len(out) slots and writes their handles into out. The whole
// batch shares one freshly advanced version number.
func (r *EntityRegistry) Alloc(out []EntityHandle) error {
	if len(out) > len(r.slots)-r.Live() {
		return CapacityError{Resource: "entity registry", Capacity: len(r.slots)}
	}
	r.version++
	for i := range out {
		var index uint32
		if n := len(r.free); n > 0 {
			index = r.free[n-1]
			r.free = r.free[:n-1]
		} else {
			index = r.next
			r.next++
		}
		slot := &r.slots[index]
		slot.alive = true
		slot.version = r.version
		slot.token = AccessToken{}
		out[i] = packHandle(index, r.version)
	}
	return nil
}

// Free marks the slots behind the given tokens not alive and recycles their
// indices. Handles presented later with the freed version fail fast.
func (r *EntityRegistry) Free(tokens ...AccessToken) error {
	for _, tok := range tokens {
		index := tok.handle.Index()
		slot, err := r.slotFor(tok.handle)
		if err != nil {
			return err
		}
		slot.alive = false
		slot.token = AccessToken{}
		r.free = append(r.free, index)
	}
	return nil
}

// Resolve returns the stored location mirror for handle. Presenting a handle
// whose version does not match the slot is a stale-handle fault.
func (r *EntityRegistry) Resolve(handle EntityHandle) (AccessToken, error) {
	slot, err := r.slotFor(handle)
	if err != nil {
		return AccessToken{}, err
	}
	return slot.token, nil
}

// update records the entity's current location. Called by the owning Page on
// allocation and after every pack move.
func (r *EntityRegistry) update(handle EntityHandle, tok AccessToken) {
	r.slots[handle.Index()].token = tok
}

func (r *EntityRegistry) slotFor(handle EntityHandle) (*registrySlot, error) {
	index := handle.Index()
	if int(index) >= len(r.slots) {
		return nil, StaleHandleError{Handle: handle}
	}
	slot := &r.slots[index]
	if !slot.alive || slot.version != handle.Version() {
		return nil, StaleHandleError{Handle: handle, Stored: slot.version}
	}
	return slot, nil
}
