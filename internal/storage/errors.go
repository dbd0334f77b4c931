package storage

import "fmt"

// StaleHandleError reports use of an EntityHandle whose version no longer
// matches the registry slot it indexes. The id has been freed, and possibly
// reused, since the handle was issued.
type StaleHandleError struct {
	Handle EntityHandle
	Stored uint32
}

func (e StaleHandleError) Error() string {
	return fmt.Sprintf("stale entity handle: id %d carries version %d, registry holds version %d",
		e.Handle.Index(), e.Handle.Version(), e.Stored)
}

// InvalidTokenError reports use of an AccessToken that no longer addresses a
// live slot: the entity was freed, the Page was disposed, or the Page packed
// since the token was issued.
type InvalidTokenError struct {
	Token  AccessToken
	Reason string
}

func (e InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid access token for entity %d (page %d): %s",
		e.Token.Handle().Index(), e.Token.PageID(), e.Reason)
}

// CapacityError reports exhaustion of fixed-capacity, pre-sized storage.
// There is no recovery path: capacities are chosen at initialization.
type CapacityError struct {
	Resource string
	Capacity int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("%s capacity exhausted (capacity %d)", e.Resource, e.Capacity)
}

// DisposedError reports an operation against a Page that was already disposed.
type DisposedError struct {
	Page string
}

func (e DisposedError) Error() string {
	return fmt.Sprintf("page %q is disposed", e.Page)
}

// ComponentMismatchError reports a component name registered twice with two
// different Go types.
type ComponentMismatchError struct {
	Name     string
	Existing string
	Given    string
}

func (e ComponentMismatchError) Error() string {
	return fmt.Sprintf("component %q already registered with type %s, got %s", e.Name, e.Existing, e.Given)
}

// ComponentNotFoundError reports component access against a Page whose type
// set does not include the component.
type ComponentNotFoundError struct {
	Page      string
	Component string
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("page %q has no %q column", e.Page, e.Component)
}
