package storage

// PageID identifies one Page within a Store.
type PageID uint32

// AccessToken is a non-owning, time-bounded capability to reach one entity's
// components within one Page generation. A token stays valid until the entity
// is freed, the Page is disposed, or the Page packs; packing bumps the Page's
// pack version and thereby invalidates every token issued before it. Callers
// that enable auto-pack must re-acquire tokens each frame.
type AccessToken struct {
	alive       bool
	handle      EntityHandle
	pageID      PageID
	pageVersion uint32
	packVersion uint32
	slot        SlotRef
}

// Handle returns the entity handle the token was issued for.
func (t AccessToken) Handle() EntityHandle { return t.handle }

// PageID returns the id of the Page the token addresses.
func (t AccessToken) PageID() PageID { return t.pageID }

// Slot returns the (chunk, slot) coordinate the token addresses.
func (t AccessToken) Slot() SlotRef { return t.slot }

// PackVersion returns the Page pack cycle the token was issued under.
func (t AccessToken) PackVersion() uint32 { return t.packVersion }

// IsAlive reports whether the token was ever issued for a live entity. A
// zero token is not alive.
func (t AccessToken) IsAlive() bool { return t.alive }

// CheckIsValid reports whether the token still addresses a live slot of p.
// It returns a nil error only while the token is alive, addresses p's current
// generation, the entity is still present in p's lookup at the token's slot,
// and p has not packed since the token was issued. Once any of these fail the
// token can never become valid again.
func (t AccessToken) CheckIsValid(p *Page) error {
	if !t.alive {
		return InvalidTokenError{Token: t, Reason: "token is not alive"}
	}
	if p == nil || p.disposed {
		return InvalidTokenError{Token: t, Reason: "page is disposed"}
	}
	if t.pageID != p.id || t.pageVersion != p.version {
		return InvalidTokenError{Token: t, Reason: "token addresses a different page generation"}
	}
	stored, ok := p.lookup[t.handle.Index()]
	if !ok || stored.handle != t.handle {
		return InvalidTokenError{Token: t, Reason: "entity is no longer stored in the page"}
	}
	if t.packVersion != p.packVersion {
		return InvalidTokenError{Token: t, Reason: "page packed since the token was issued"}
	}
	if stored.slot != t.slot {
		return InvalidTokenError{Token: t, Reason: "token slot is out of date"}
	}
	return nil
}
