package redis

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
)

// DefaultKeyPrefix namespaces avatar entries in a shared Redis database
const DefaultKeyPrefix = "ad2image:avatar:"

// Stored values carry a one byte marker so that a cached "no image" is
// distinguishable from an empty image.
const (
	markerNone  byte = 0
	markerImage byte = 1
)

// AvatarStore keeps resolution results in Redis without expiry, so several
// service instances share one cache.
type AvatarStore struct {
	client redis.UniversalClient
	prefix string
}

var _ interfaces.AvatarStore = &AvatarStore{}

type Option func(*AvatarStore)

// WithKeyPrefix overrides DefaultKeyPrefix
func WithKeyPrefix(prefix string) Option {
	return func(s *AvatarStore) {
		s.prefix = prefix
	}
}

func NewAvatarStore(client redis.UniversalClient, opts ...Option) *AvatarStore {
	s := &AvatarStore{
		client: client,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AvatarStore) key(key model.CacheKey) string {
	return s.prefix + key.String()
}

func (s *AvatarStore) Get(ctx context.Context, key model.CacheKey) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get avatar from redis", goerr.V("key", key.String()))
	}

	data, ok := decode(raw)
	if !ok {
		return nil, false, goerr.New("corrupted avatar entry in redis", goerr.V("key", key.String()))
	}
	return data, true, nil
}

func (s *AvatarStore) Put(ctx context.Context, key model.CacheKey, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), encode(data), 0).Err(); err != nil {
		return goerr.Wrap(err, "failed to put avatar to redis", goerr.V("key", key.String()))
	}
	return nil
}

// Close releases the underlying client
func (s *AvatarStore) Close() error {
	return s.client.Close()
}

func encode(data []byte) []byte {
	if data == nil {
		return []byte{markerNone}
	}
	out := make([]byte, 0, len(data)+1)
	out = append(out, markerImage)
	return append(out, data...)
}

func decode(raw []byte) ([]byte, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	switch raw[0] {
	case markerNone:
		return nil, true
	case markerImage:
		return raw[1:], true
	default:
		return nil, false
	}
}
