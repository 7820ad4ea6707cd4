package container

import "errors"

var (
	// ErrCapacity indicates a no-resize append that would exceed the
	// pre-established capacity. This check is always active: skipping it
	// would let concurrent writers scribble past the buffer.
	ErrCapacity = errors.New("container: capacity exceeded")

	// ErrDuplicateKey indicates Add on a key the map already holds.
	ErrDuplicateKey = errors.New("container: duplicate key")

	// ErrKeyNotFound indicates Get on a key the map does not hold.
	ErrKeyNotFound = errors.New("container: key not found")

	// ErrNotCreated indicates a mutation on a container whose storage was
	// never allocated or has been disposed.
	ErrNotCreated = errors.New("container: not created")
)
