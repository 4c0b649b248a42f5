package types

import "errors"

// Dataset construction errors.
var (
	ErrInvalidTable   = errors.New("invalid table")
	ErrColumnNotFound = errors.New("column not found")
	ErrOutOfRange     = errors.New("index out of range")
)

// Decoding errors returned by strategies. The loader records them as
// attempt failures; they never reach the loader's caller as errors.
var (
	ErrEmptyFile       = errors.New("empty file")
	ErrNotArray        = errors.New("top-level value is not an array")
	ErrTrailingData    = errors.New("trailing data after value")
	ErrNotTabular      = errors.New("content is not tabular")
	ErrMalformedRecord = errors.New("malformed record")
	ErrNotPickle       = errors.New("not a pickle stream")
	ErrForeignObject   = errors.New("pickled object needs its python class")
	ErrBinaryContent   = errors.New("unrecognized binary content")
	ErrAmbiguousTable  = errors.New("database holds more than one table")
	ErrNoTable         = errors.New("database holds no table")
	ErrStrategyPanic   = errors.New("strategy panicked")
	ErrUnknownFormat   = errors.New("unknown output format")
	ErrManifestInvalid = errors.New("invalid manifest")
)
