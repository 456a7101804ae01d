package mir

import "errors"

var (
	// ErrUnsupported marks an instruction or operator the backend recognizes but cannot handle.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrUnknownInst marks an instruction type missing from a dispatch.
	ErrUnknownInst = errors.New("unknown instruction")
)
