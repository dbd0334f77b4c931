package sim

import (
	"github.com/vk/simgridgo/internal/storage"
)

// UpdateContext is handed to a node's Logic for one frame. It carries the
// frame number, the store, and the node's AccessGuard; all page access goes
// through it so the guard sees every touch.
type UpdateContext struct {
	Frame uint64
	Store *storage.Store
	guard *AccessGuard
}

// NewUpdateContext is used by the frame scheduler when dispatching a node.
func NewUpdateContext(frame uint64, store *storage.Store, guard *AccessGuard) *UpdateContext {
	return &UpdateContext{Frame: frame, Store: store, guard: guard}
}

// Read opens the named page for reading.
func (uc *UpdateContext) Read(name string) (*PageView, error) {
	uc.guard.AssertRead(name, "")
	page, err := uc.Store.Page(name)
	if err != nil {
		return nil, err
	}
	return &PageView{page: page, guard: uc.guard, key: name}, nil
}

// Write opens the named page for writing.
func (uc *UpdateContext) Write(name string) (*PageView, error) {
	uc.guard.AssertWrite(name, "")
	page, err := uc.Store.Page(name)
	if err != nil {
		return nil, err
	}
	return &PageView{page: page, guard: uc.guard, key: name, writable: true}, nil
}

// PageView is a guard-carrying view over one page for one dispatch. Every
// operation re-asserts the matching lock so that a view sneaked across a
// frame boundary still cannot bypass the declarations.
type PageView struct {
	page     *storage.Page
	guard    *AccessGuard
	key      string
	writable bool
}

// Count returns the page's live entity count.
func (v *PageView) Count() int { return v.page.Count() }

// Token re-acquires a fresh token for handle in the current pack cycle.
func (v *PageView) Token(handle storage.EntityHandle) (storage.AccessToken, error) {
	v.guard.AssertRead(v.key, "")
	return v.page.Token(handle)
}

// Alloc reserves n entities in the page.
func (v *PageView) Alloc(n int) ([]storage.AccessToken, error) {
	v.guard.AssertWrite(v.key, "")
	return v.page.Alloc(n)
}

// Free releases entities behind valid tokens.
func (v *PageView) Free(tokens ...storage.AccessToken) error {
	v.guard.AssertWrite(v.key, "")
	return v.page.Free(tokens...)
}

// Pack defragments up to max pending free slots.
func (v *PageView) Pack(max int) (int, error) {
	v.guard.AssertWrite(v.key, "")
	return v.page.Pack(max)
}

// Metadata returns the reserved metadata entry behind a valid token.
func (v *PageView) Metadata(tok storage.AccessToken) (*storage.EntityMetadata, error) {
	v.guard.AssertRead(v.key, "")
	return v.page.Metadata(tok)
}

// Tokens mints fresh tokens for every live entity in the page, ordered by
// slot.
func (v *PageView) Tokens() ([]storage.AccessToken, error) {
	v.guard.AssertRead(v.key, "")
	return v.page.Tokens()
}

// Get returns a read pointer to one component value. The guard is notified
// per component type.
func Get[T any](v *PageView, ct storage.ComponentType[T], tok storage.AccessToken) (*T, error) {
	v.guard.AssertRead(v.key, ct.Name())
	return storage.Get(v.page, ct, tok)
}

// Mut returns a write pointer to one component value. The guard is notified
// per component type; the write is counted in the slot's metadata.
func Mut[T any](v *PageView, ct storage.ComponentType[T], tok storage.AccessToken) (*T, error) {
	v.guard.AssertWrite(v.key, ct.Name())
	return storage.Mut(v.page, ct, tok)
}

// Column returns the typed column for bulk iteration. Write access is
// asserted when the view was opened for writing, read access otherwise.
func Column[T any](v *PageView, ct storage.ComponentType[T]) (*storage.Column[T], error) {
	if v.writable {
		v.guard.AssertWrite(v.key, ct.Name())
	} else {
		v.guard.AssertRead(v.key, ct.Name())
	}
	return storage.ColumnOf(v.page, ct)
}

// ChunkCount returns the page's current chunk count.
func (v *PageView) ChunkCount() int { return v.page.ChunkCount() }
