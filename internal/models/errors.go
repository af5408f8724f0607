package models

import "errors"

// Error kinds shared across the conversion pipeline. Each failure is terminal
// for the affected job; batch drivers log and continue with sibling jobs.
var (
	// ErrMetadata indicates a missing or malformed DAT descriptor or NSIHDR
	// project header.
	ErrMetadata = errors.New("missing or malformed metadata")

	// ErrUnsupportedEncoding indicates a requested source or destination
	// encoding outside uint8/uint16/float32.
	ErrUnsupportedEncoding = errors.New("unsupported sample encoding")

	// ErrUnknownEncoding indicates a volume whose file size does not match
	// any supported encoding for its declared dimensions.
	ErrUnknownEncoding = errors.New("cannot infer sample encoding")

	// ErrAlreadyExists indicates an output path that is already occupied.
	// The slice assembler treats this as fatal unless forced.
	ErrAlreadyExists = errors.New("output file already exists")

	// ErrInvalidInput indicates a degenerate input: an empty sample stream,
	// a buffer size that is not a positive multiple of the sample width, or
	// a byte stream that is not a whole number of samples.
	ErrInvalidInput = errors.New("invalid input")
)
