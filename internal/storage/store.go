package storage

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
)

// StoreOptions sizes a Store at creation. Entity capacity is fixed; the slot
// array never grows.
type StoreOptions struct {
	EntityCapacity int
	// Checked enables deep cross-referential consistency validation on the
	// component access path. Leave it off in optimized runs; the public
	// contract is identical either way.
	Checked bool
	// Components, when set, shares a pre-populated component registry with
	// the store. Nil creates an empty one.
	Components *ComponentRegistry
}

const defaultEntityCapacity = 1 << 16

// Store is the root arena object owning the component registry, the entity
// registry, and every Page, grouped by archetype mask. It replaces any
// process-wide lookup table: embedding code creates one Store per engine and
// passes it by reference.
type Store struct {
	checked    bool
	components *ComponentRegistry
	entities   *EntityRegistry
	pages      []*Page
	byName     map[string]*Page
	byMask     map[mask.Mask]PageID
}

// NewStore returns an empty Store with pre-sized entity capacity.
func NewStore(opts StoreOptions) *Store {
	if opts.EntityCapacity <= 0 {
		opts.EntityCapacity = defaultEntityCapacity
	}
	if opts.Components == nil {
		opts.Components = NewComponentRegistry()
	}
	return &Store{
		checked:    opts.Checked,
		components: opts.Components,
		entities:   NewEntityRegistry(opts.EntityCapacity),
		byName:     make(map[string]*Page),
		byMask:     make(map[mask.Mask]PageID),
	}
}

// Components returns the store's component registry.
func (s *Store) Components() *ComponentRegistry { return s.components }

// Entities returns the store's entity registry.
func (s *Store) Entities() *EntityRegistry { return s.entities }

// Checked reports whether deep validation is enabled.
func (s *Store) Checked() bool { return s.checked }

// Pages returns every page in creation order.
func (s *Store) Pages() []*Page { return s.pages }

// CreatePage creates the archetype page for the given component set. The
// page name doubles as the scheduler's resource key for the page. One page
// per component set: creating a second page with an identical type set is an
// error, as is reusing a name.
func (s *Store) CreatePage(name string, opts PageOptions, comps ...Component) (*Page, error) {
	if _, exists := s.byName[name]; exists {
		return nil, fmt.Errorf("page %q already exists", name)
	}
	var typeSet mask.Mask
	for _, comp := range comps {
		typeSet.Mark(uint32(comp.ID()))
	}
	if id, exists := s.byMask[typeSet]; exists {
		return nil, fmt.Errorf("page %q already stores this component set", s.pages[id].Name())
	}
	page, err := newPage(PageID(len(s.pages)), name, s.entities, opts, s.checked, comps...)
	if err != nil {
		return nil, err
	}
	s.pages = append(s.pages, page)
	s.byName[name] = page
	s.byMask[typeSet] = page.id
	return page, nil
}

// Page returns the page registered under name.
func (s *Store) Page(name string) (*Page, error) {
	page, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("page %q does not exist", name)
	}
	return page, nil
}

// PageByMask returns the page storing exactly the given component set.
func (s *Store) PageByMask(typeSet mask.Mask) (*Page, bool) {
	id, ok := s.byMask[typeSet]
	if !ok {
		return nil, false
	}
	return s.pages[id], true
}

// Resolve re-acquires a fresh token for handle, following the registry
// mirror to the owning page's current pack cycle. This is the once-per-frame
// entry point for callers holding only handles.
func (s *Store) Resolve(handle EntityHandle) (AccessToken, error) {
	mirror, err := s.entities.Resolve(handle)
	if err != nil {
		return AccessToken{}, err
	}
	if int(mirror.pageID) >= len(s.pages) {
		return AccessToken{}, StaleHandleError{Handle: handle}
	}
	return s.pages[mirror.pageID].Token(handle)
}

// Dispose disposes every page. The store is unusable afterwards.
func (s *Store) Dispose() {
	for _, page := range s.pages {
		page.Dispose()
	}
	s.byName = nil
	s.byMask = nil
}
