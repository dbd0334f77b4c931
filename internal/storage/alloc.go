package storage

// Allocator supplies the typed backing arrays for chunk storage. The engine
// performs no pooling of its own; embedding code may plug in a pooled
// implementation and every chunk array will be borrowed from it and returned
// on disposal or tail recycling.
type Allocator[T any] interface {
	// Allocate returns a zeroed slice of exactly count elements.
	Allocate(count int) []T
	// Release returns a slice previously obtained from Allocate.
	Release(buf []T)
}

// sliceAllocator is the default pass-through Allocator backed by make. It
// keeps the collaborator contract without imposing a pool on callers that do
// not need one.
type sliceAllocator[T any] struct{}

func (sliceAllocator[T]) Allocate(count int) []T { return make([]T, count) }

func (sliceAllocator[T]) Release(buf []T) {}
