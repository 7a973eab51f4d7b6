// Package process is the byte transfer layer between halosnap and a target
package process

import "errors"

var (
	ErrAddressNotMapped = errors.New("address not mapped")
	ErrProcessNotOpen   = errors.New("process not open")
	// ErrPartialRead means the target returned fewer bytes than requested
	ErrPartialRead = errors.New("partial read")
)
