package memory

import (
	"sync"
	"sync/atomic"

	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
)

// HashStore is a concurrency-safe digest -> uid map. Writes are visible to
// readers immediately; there is no snapshot swap.
type HashStore struct {
	entries sync.Map // string -> string
	count   atomic.Int64
}

var _ interfaces.HashStore = &HashStore{}

func NewHashStore() *HashStore {
	return &HashStore{}
}

func (s *HashStore) Get(digest string) (string, bool) {
	v, ok := s.entries.Load(digest)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (s *HashStore) Put(digest, uid string) {
	if _, loaded := s.entries.Swap(digest, uid); !loaded {
		s.count.Add(1)
	}
}

func (s *HashStore) Len() int {
	return int(s.count.Load())
}
