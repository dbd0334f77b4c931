package storage

import (
	"fmt"
	"sort"

	"github.com/TheBitDrifter/mask"
)

// PageOptions sizes one Page. Capacity is fixed at creation: a Page owns at
// most MaxChunks chunks of ChunkSize slots per column and never grows past
// that.
type PageOptions struct {
	ChunkSize int
	MaxChunks int
	// AutoPack runs packing immediately after every Free. With auto-pack
	// enabled, tokens must be re-acquired each frame.
	AutoPack bool
}

const (
	defaultChunkSize = 256
	defaultMaxChunks = 1024
)

// Page stores every entity sharing one fixed component-type set, one column
// per component type plus the reserved EntityMetadata column. All columns
// keep identical chunk counts and capacities, driven in lock-step by alloc,
// free, and pack.
//
// Page mutation is not synchronized internally; callers serialize access
// through the declared write lock for the page's resource key.
type Page struct {
	id      PageID
	version uint32
	name    string
	typeSet mask.Mask
	comps   []Component
	columns []column
	byComp  map[ComponentID]int
	meta    Column[EntityMetadata]

	chunkSize int
	maxChunks int
	autoPack  bool
	checked   bool

	reg    *EntityRegistry
	lookup map[uint32]AccessToken

	// free holds dead slots below the cursor, sorted ascending and popped
	// from the tail on allocation.
	free        []SlotRef
	cursor      int
	count       int
	packVersion uint32
	disposed    bool
}

func newPage(id PageID, name string, reg *EntityRegistry, opts PageOptions, checked bool, comps ...Component) (*Page, error) {
	if len(comps) == 0 {
		return nil, fmt.Errorf("page %q needs at least one component type", name)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = defaultMaxChunks
	}
	p := &Page{
		id:        id,
		version:   1,
		name:      name,
		comps:     comps,
		byComp:    make(map[ComponentID]int, len(comps)),
		meta:      Column[EntityMetadata]{chunkSize: opts.ChunkSize, alloc: sliceAllocator[EntityMetadata]{}},
		chunkSize: opts.ChunkSize,
		maxChunks: opts.MaxChunks,
		autoPack:  opts.AutoPack,
		checked:   checked,
		reg:       reg,
		lookup:    make(map[uint32]AccessToken),
	}
	for _, comp := range comps {
		if _, dup := p.byComp[comp.ID()]; dup {
			return nil, fmt.Errorf("page %q declares component %q twice", name, comp.Name())
		}
		p.byComp[comp.ID()] = len(p.columns)
		p.columns = append(p.columns, comp.newColumn(opts.ChunkSize))
		p.typeSet.Mark(uint32(comp.ID()))
	}
	return p, nil
}

// ID returns the page id within its Store.
func (p *Page) ID() PageID { return p.id }

// Name returns the page's resource-key name.
func (p *Page) Name() string { return p.name }

// Count returns the number of live entities.
func (p *Page) Count() int { return p.count }

// ChunkCount returns the current chunk count shared by all columns.
func (p *Page) ChunkCount() int {
	if len(p.columns) == 0 {
		return 0
	}
	return p.columns[0].chunkCount()
}

// ChunkSize returns the fixed per-chunk slot capacity.
func (p *Page) ChunkSize() int { return p.chunkSize }

// PackVersion returns the current pack cycle counter.
func (p *Page) PackVersion() uint32 { return p.packVersion }

// TypeSet returns the page's archetype mask over component ids.
func (p *Page) TypeSet() mask.Mask { return p.typeSet }

// Components returns the page's component set, metadata excluded.
func (p *Page) Components() []Component { return p.comps }

// AutoPack reports whether the page packs immediately after every Free.
func (p *Page) AutoPack() bool { return p.autoPack }

// Alloc reserves n entities, reusing freed slots from the free-list tail
// before advancing the allocation cursor. Crossing a chunk boundary grows
// every column by one chunk in lock-step. Returned tokens are valid until
// the entities are freed or the page packs.
func (p *Page) Alloc(n int) ([]AccessToken, error) {
	if p.disposed {
		return nil, DisposedError{Page: p.name}
	}
	if n <= 0 {
		return nil, fmt.Errorf("page %q: alloc count must be positive, got %d", p.name, n)
	}
	fresh := n - len(p.free)
	if fresh > 0 && p.cursor+fresh > p.maxChunks*p.chunkSize {
		return nil, CapacityError{Resource: fmt.Sprintf("page %q", p.name), Capacity: p.maxChunks * p.chunkSize}
	}

	handles := make([]EntityHandle, n)
	if err := p.reg.Alloc(handles); err != nil {
		return nil, err
	}

	tokens := make([]AccessToken, n)
	for i, handle := range handles {
		var ref SlotRef
		if last := len(p.free) - 1; last >= 0 {
			ref = p.free[last]
			p.free = p.free[:last]
		} else {
			if p.cursor == p.ChunkCount()*p.chunkSize {
				p.grow()
			}
			ref = slotRefAt(p.cursor, p.chunkSize)
			p.cursor++
		}
		for _, col := range p.columns {
			col.initSlot(ref)
		}
		p.meta.initSlot(ref)

		tok := AccessToken{
			alive:       true,
			handle:      handle,
			pageID:      p.id,
			pageVersion: p.version,
			packVersion: p.packVersion,
			slot:        ref,
		}
		*p.meta.Slot(ref) = EntityMetadata{Token: tok, ComponentCount: len(p.comps)}
		p.lookup[handle.Index()] = tok
		p.reg.update(handle, tok)
		tokens[i] = tok
	}
	p.count += n
	return tokens, nil
}

// Free releases the entities behind the given tokens: each is removed from
// the page lookup and the entity registry, every column's free hook runs, and
// the slot joins the sorted free-list. With auto-pack enabled, packing runs
// immediately afterwards.
func (p *Page) Free(tokens ...AccessToken) error {
	if p.disposed {
		return DisposedError{Page: p.name}
	}
	for _, tok := range tokens {
		if err := tok.CheckIsValid(p); err != nil {
			return err
		}
		if p.checked {
			if err := p.validateDeep(tok); err != nil {
				return err
			}
		}
	}
	for _, tok := range tokens {
		delete(p.lookup, tok.handle.Index())
		if err := p.reg.Free(tok); err != nil {
			return err
		}
		for _, col := range p.columns {
			col.freeSlot(tok.slot)
		}
		p.meta.freeSlot(tok.slot)
		p.insertFree(tok.slot)
	}
	p.count -= len(tokens)
	if p.autoPack {
		if _, err := p.Pack(len(p.free)); err != nil {
			return err
		}
	}
	return nil
}

// Pack defragments up to maxCount pending free slots. Dead slots at the top
// of the allocation range are deallocated in place; each remaining gap is
// closed by copying the highest live entity's component values down across
// every column and retiring the vacated top slot. Cost is proportional to the
// slots moved, never to the page population. Trailing empty chunks are
// recycled immediately. Any successful pack bumps the pack version, which
// invalidates every previously issued token for the page; moved entities'
// registry entries and lookups are rewritten in place.
func (p *Page) Pack(maxCount int) (int, error) {
	if p.disposed {
		return 0, DisposedError{Page: p.name}
	}
	moved := 0
	processed := 0
	changed := false
	next := p.packVersion + 1

	for processed < maxCount && len(p.free) > 0 {
		// Retire already-dead slots sitting at the top of the range.
		for last := len(p.free) - 1; last >= 0 && processed < maxCount &&
			p.free[last].linear(p.chunkSize) == p.cursor-1; last = len(p.free) - 1 {
			p.free = p.free[:last]
			p.cursor--
			processed++
			changed = true
		}
		if len(p.free) == 0 || processed >= maxCount {
			break
		}

		lowest := p.free[0]
		if lowest.linear(p.chunkSize) >= p.cursor {
			// Everything still pending lies beyond the live boundary.
			p.free = p.free[:0]
			changed = true
			break
		}

		src := slotRefAt(p.cursor-1, p.chunkSize)
		for _, col := range p.columns {
			col.moveSlot(lowest, src)
		}
		p.meta.moveSlot(lowest, src)

		md := p.meta.Slot(lowest)
		handle := md.Token.handle
		tok := AccessToken{
			alive:       true,
			handle:      handle,
			pageID:      p.id,
			pageVersion: p.version,
			packVersion: next,
			slot:        lowest,
		}
		md.Token = tok
		p.lookup[handle.Index()] = tok
		p.reg.update(handle, tok)

		p.free = p.free[1:]
		p.cursor--
		processed++
		moved++
		changed = true
	}

	keep := (p.cursor + p.chunkSize - 1) / p.chunkSize
	if keep < p.ChunkCount() {
		for _, col := range p.columns {
			col.dropTail(keep)
		}
		p.meta.dropTail(keep)
		changed = true
	}

	if changed {
		p.packVersion = next
	}
	return moved, nil
}

// Token mints a fresh token for handle against the page's current pack
// cycle. This is the re-acquisition path after packing.
func (p *Page) Token(handle EntityHandle) (AccessToken, error) {
	if p.disposed {
		return AccessToken{}, DisposedError{Page: p.name}
	}
	stored, ok := p.lookup[handle.Index()]
	if !ok || stored.handle != handle {
		return AccessToken{}, StaleHandleError{Handle: handle}
	}
	stored.pageVersion = p.version
	stored.packVersion = p.packVersion
	return stored, nil
}

// Tokens mints a fresh token for every live entity, ordered by slot. The
// slice is a snapshot; tokens minted before a later Free or Pack go stale
// like any others.
func (p *Page) Tokens() ([]AccessToken, error) {
	if p.disposed {
		return nil, DisposedError{Page: p.name}
	}
	toks := make([]AccessToken, 0, p.count)
	for _, stored := range p.lookup {
		stored.pageVersion = p.version
		stored.packVersion = p.packVersion
		toks = append(toks, stored)
	}
	sort.Slice(toks, func(i, j int) bool {
		return toks[i].slot.linear(p.chunkSize) < toks[j].slot.linear(p.chunkSize)
	})
	return toks, nil
}

// Dispose releases every chunk of every column back to its allocator and
// permanently invalidates the page and all its tokens.
func (p *Page) Dispose() {
	if p.disposed {
		return
	}
	for _, col := range p.columns {
		col.dispose()
	}
	p.meta.dispose()
	p.lookup = nil
	p.free = nil
	p.disposed = true
}

// Metadata returns the reserved metadata entry for a valid token.
func (p *Page) Metadata(tok AccessToken) (*EntityMetadata, error) {
	if err := tok.CheckIsValid(p); err != nil {
		return nil, err
	}
	return p.meta.Slot(tok.slot), nil
}

func (p *Page) grow() {
	for _, col := range p.columns {
		col.appendChunk()
	}
	p.meta.appendChunk()
}

func (p *Page) insertFree(ref SlotRef) {
	linear := ref.linear(p.chunkSize)
	at := sort.Search(len(p.free), func(i int) bool {
		return p.free[i].linear(p.chunkSize) >= linear
	})
	p.free = append(p.free, SlotRef{})
	copy(p.free[at+1:], p.free[at:])
	p.free[at] = ref
}

// validateDeep cross-references a token against the metadata column and the
// entity registry. Checked builds only; the fast path relies on
// CheckIsValid alone.
func (p *Page) validateDeep(tok AccessToken) error {
	md := p.meta.Slot(tok.slot)
	if md.Token.handle != tok.handle || md.Token.slot != tok.slot {
		return InvalidTokenError{Token: tok, Reason: "metadata mirror disagrees with token"}
	}
	mirror, err := p.reg.Resolve(tok.handle)
	if err != nil {
		return err
	}
	if mirror.slot != tok.slot || mirror.pageID != tok.pageID {
		return InvalidTokenError{Token: tok, Reason: "registry mirror disagrees with token"}
	}
	return nil
}

// ColumnOf returns the typed column for one of the page's component types.
func ColumnOf[T any](p *Page, ct ComponentType[T]) (*Column[T], error) {
	i, ok := p.byComp[ct.ID()]
	if !ok {
		return nil, ComponentNotFoundError{Page: p.name, Component: ct.Name()}
	}
	col, ok := p.columns[i].(*Column[T])
	if !ok {
		var zero T
		return nil, ComponentMismatchError{Name: ct.Name(), Existing: fmt.Sprintf("%T", p.columns[i]), Given: fmt.Sprintf("%T", zero)}
	}
	return col, nil
}

// Get returns a read pointer to one component value behind a valid token.
func Get[T any](p *Page, ct ComponentType[T], tok AccessToken) (*T, error) {
	if err := tok.CheckIsValid(p); err != nil {
		return nil, err
	}
	if p.checked {
		if err := p.validateDeep(tok); err != nil {
			return nil, err
		}
	}
	col, err := ColumnOf(p, ct)
	if err != nil {
		return nil, err
	}
	return col.Slot(tok.slot), nil
}

// Mut returns a write pointer to one component value behind a valid token,
// counting the write in the slot's metadata.
func Mut[T any](p *Page, ct ComponentType[T], tok AccessToken) (*T, error) {
	ptr, err := Get(p, ct, tok)
	if err != nil {
		return nil, err
	}
	p.meta.Slot(tok.slot).FieldWrites++
	return ptr, nil
}
