package alloc

import "errors"

var (
	// ErrViewAlloc indicates an attempt to allocate or grow through the
	// None handle. A view does not own its memory; growing it is a logic
	// error about ownership, never silently ignored.
	ErrViewAlloc = errors.New("alloc: allocation through view sentinel handle")

	// ErrBadHandle indicates a handle that was never registered or has
	// been unregistered.
	ErrBadHandle = errors.New("alloc: bad allocator handle")

	// ErrOddAlign indicates an alignment that is zero or not a power of two.
	ErrOddAlign = errors.New("alloc: alignment must be a non-zero power of two")
)
