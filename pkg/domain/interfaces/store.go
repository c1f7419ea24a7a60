package interfaces

import (
	"context"

	"github.com/secmon-lab/ad2image/pkg/domain/model"
)

// AvatarStore keeps resolution results. Implementations must be safe for
// concurrent use; on concurrent writes to the same key the last write wins.
type AvatarStore interface {
	// Get returns the stored value and whether the key was present.
	// A present key may hold nil, meaning "no image".
	Get(ctx context.Context, key model.CacheKey) ([]byte, bool, error)

	// Put stores data (possibly nil) under key
	Put(ctx context.Context, key model.CacheKey, data []byte) error
}

// HashStore maps normalized email digests to user identifiers.
// Implementations must be safe for concurrent use.
type HashStore interface {
	Get(digest string) (string, bool)
	Put(digest, uid string)
	Len() int
}
