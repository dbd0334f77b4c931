package storage

import (
	"fmt"
	"reflect"
)

// ComponentID is the stable integer assigned to one component type within one
// ComponentRegistry. Ids double as bit positions in a Page's archetype mask.
type ComponentID uint32

// Component is the type-erased view of a registered component type, enough
// for a Page to build and manage the matching column without knowing the
// element type.
type Component interface {
	ID() ComponentID
	Name() string

	newColumn(chunkSize int) column
}

// ComponentRegistry maps component names to stable integer ids. It is built
// once per Store and cached; lookups on the access path are plain slice and
// map reads, never reflection.
type ComponentRegistry struct {
	byName map[string]ComponentID
	names  []string
	types  []reflect.Type
}

// NewComponentRegistry returns an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{byName: make(map[string]ComponentID)}
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int { return len(r.names) }

// NameOf returns the name registered for id.
func (r *ComponentRegistry) NameOf(id ComponentID) string { return r.names[id] }

// register assigns the next free id to name, or returns the existing id when
// name was registered before with the same Go type. Registering one name
// under two types is a programmer error.
func (r *ComponentRegistry) register(name string, t reflect.Type) (ComponentID, error) {
	if id, ok := r.byName[name]; ok {
		if r.types[id] != t {
			return 0, ComponentMismatchError{Name: name, Existing: r.types[id].String(), Given: t.String()}
		}
		return id, nil
	}
	id := ComponentID(len(r.names))
	r.byName[name] = id
	r.names = append(r.names, name)
	r.types = append(r.types, t)
	return id, nil
}

// ComponentType is the typed handle for one registered component. It is cheap
// to copy and carries everything typed accessors need: the stable id and the
// allocator backing the component's chunk arrays.
type ComponentType[T any] struct {
	id    ComponentID
	name  string
	alloc Allocator[T]
}

// ID returns the component's stable integer id.
func (ct ComponentType[T]) ID() ComponentID { return ct.id }

// Name returns the component's registered name.
func (ct ComponentType[T]) Name() string { return ct.name }

func (ct ComponentType[T]) newColumn(chunkSize int) column {
	return &Column[T]{chunkSize: chunkSize, alloc: ct.alloc}
}

// RegisterComponent registers T under name and returns its typed handle.
// Registering the same name twice with the same type returns an equivalent
// handle; a type mismatch panics, since it can only be a wiring defect.
func RegisterComponent[T any](r *ComponentRegistry, name string) ComponentType[T] {
	return RegisterComponentWithAllocator[T](r, name, sliceAllocator[T]{})
}

// RegisterComponentWithAllocator is RegisterComponent with an explicit chunk
// array allocator, for embedders that pool their buffers.
func RegisterComponentWithAllocator[T any](r *ComponentRegistry, name string, alloc Allocator[T]) ComponentType[T] {
	var zero T
	id, err := r.register(name, reflect.TypeOf(zero))
	if err != nil {
		panic(err)
	}
	return ComponentType[T]{id: id, name: name, alloc: alloc}
}

// LookupComponent returns the typed handle for a previously registered name.
func LookupComponent[T any](r *ComponentRegistry, name string) (ComponentType[T], error) {
	id, ok := r.byName[name]
	if !ok {
		return ComponentType[T]{}, fmt.Errorf("component %q not registered", name)
	}
	var zero T
	if t := reflect.TypeOf(zero); r.types[id] != t {
		return ComponentType[T]{}, ComponentMismatchError{Name: name, Existing: r.types[id].String(), Given: t.String()}
	}
	return ComponentType[T]{id: id, name: name, alloc: sliceAllocator[T]{}}, nil
}
