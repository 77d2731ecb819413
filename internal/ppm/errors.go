package ppm

import "errors"

var (
	ErrInvalidDimension  = errors.New("invalid image dimension")
	ErrDimensionMismatch = errors.New("image dimensions do not match")
	ErrOutOfBounds       = errors.New("coordinates out of bounds")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrIO                = errors.New("image i/o failure")
)

// ErrFormat reports a malformed pixmap. It wraps ErrIO so that every load
// failure can be matched with a single errors.Is check.
var ErrFormat = formatError{}

type formatError struct{}

func (formatError) Error() string { return "malformed pixmap" }

func (formatError) Unwrap() error { return ErrIO }
