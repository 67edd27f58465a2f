package book

import "errors"

var (
	// ErrUnknownOrder marks a cancel/delete/execute referencing an id
	// that is not (or no longer) in the registry.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrUnknownLevel marks a lookup for a price level that was expected
	// to exist but is absent from its side's tree.
	ErrUnknownLevel = errors.New("unknown level")
)
