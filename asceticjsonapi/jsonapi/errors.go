package jsonapi

import "errors"

// Every error the engine raises wraps exactly one of these kinds, so callers
// can tell them apart with errors.Is. None of them is transient.
var (
	ErrUnknownRelationship         = errors.New("jsonapi: unknown relationship")
	ErrMissingLookupKey            = errors.New("jsonapi: missing lookup key")
	ErrUnsupportedRelationshipKind = errors.New("jsonapi: unsupported relationship kind")
	ErrUnsupportedOperation        = errors.New("jsonapi: unsupported operation")
	ErrInvalidID                   = errors.New("jsonapi: invalid resource id")
)
