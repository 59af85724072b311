package vector

import "github.com/rotisserie/eris"

var (
	// ErrNoDriver is returned when no registered driver claims a file.
	ErrNoDriver = eris.New("vector: no driver recognised the file")
	// ErrUnknownDriver is returned when a driver name is not registered.
	ErrUnknownDriver = eris.New("vector: unknown driver")
	// ErrNotSupported is returned by drivers for operations they do not implement.
	ErrNotSupported = eris.New("vector: operation not supported")
	// ErrReadOnly is returned when writing to a read-only dataset or layer.
	ErrReadOnly = eris.New("vector: read-only")
)
