package clientsfile

import "errors"

// Sentinel kinds for clients file errors.
var (
	ErrInvalid = errors.New("invalid clients file")
	ErrLocked  = errors.New("clients file is locked")
)
