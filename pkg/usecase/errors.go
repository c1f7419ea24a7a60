package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrHashIndexNotReady is returned by digest lookups before the first
	// directory scan has completed
	ErrHashIndexNotReady = errors.New("hash index is not ready")
)

// Context keys for error values
const (
	UIDKey    = "uid"
	ModeKey   = "mode"
	SizeKey   = "size"
	DigestKey = "digest"
)
