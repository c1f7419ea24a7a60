package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
)

// avatarEntry wraps a stored result so a stored "no image" (nil) can be
// told apart from a missing key.
type avatarEntry struct {
	data []byte
}

// AvatarStore keeps resolution results in process memory for the lifetime
// of the process. There is no eviction.
type AvatarStore struct {
	entries sync.Map // model.CacheKey -> *avatarEntry
}

var _ interfaces.AvatarStore = &AvatarStore{}

func NewAvatarStore() *AvatarStore {
	return &AvatarStore{}
}

func (s *AvatarStore) Get(ctx context.Context, key model.CacheKey) ([]byte, bool, error) {
	v, ok := s.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	return v.(*avatarEntry).data, true, nil
}

func (s *AvatarStore) Put(ctx context.Context, key model.CacheKey, data []byte) error {
	s.entries.Store(key, &avatarEntry{data: data})
	return nil
}
