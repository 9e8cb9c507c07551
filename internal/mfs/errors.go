package mfs

import "errors"

var (
	// ErrBadSignature is returned when the image carries no MFS master directory block
	ErrBadSignature = errors.New("not an MFS volume")

	// ErrCorrupt is returned for structures that point outside the volume or loop
	ErrCorrupt = errors.New("corrupt MFS volume")

	// ErrClosed is returned when a fork or volume is used after Close
	ErrClosed = errors.New("fork or volume already closed")
)
