package model

import (
	"strings"

	"github.com/secmon-lab/ad2image/pkg/domain/types"
)

// CacheKey identifies one resolution result
type CacheKey struct {
	UID  string
	Mode types.Mode
	Size types.ImageSize
}

// NewCacheKey creates a CacheKey
func NewCacheKey(uid string, mode types.Mode, size types.ImageSize) CacheKey {
	return CacheKey{UID: uid, Mode: mode, Size: size}
}

// String returns a stable flat representation usable as a store key.
// The uid comes last so it may contain the separator.
func (k CacheKey) String() string {
	return strings.Join([]string{k.Mode.String(), k.Size.String(), k.UID}, ":")
}
