package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/metrics"
	"github.com/secmon-lab/ad2image/pkg/repository/memory"
)

type UseCases struct {
	avatarStore   interfaces.AvatarStore
	hashStore     interfaces.HashStore
	metrics       *metrics.Metrics
	hashIndexOpts []HashIndexOption
	resolverOpts  []ResolverOption

	Resolver  *AvatarResolver
	Avatar    *AvatarCache
	HashIndex *HashIndex
}

type Option func(*UseCases)

// WithAvatarStore replaces the in-memory avatar cache backend
func WithAvatarStore(store interfaces.AvatarStore) Option {
	return func(uc *UseCases) {
		uc.avatarStore = store
	}
}

// WithHashStore replaces the in-memory hash index backend
func WithHashStore(store interfaces.HashStore) Option {
	return func(uc *UseCases) {
		uc.hashStore = store
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

func WithHashIndexOptions(opts ...HashIndexOption) Option {
	return func(uc *UseCases) {
		uc.hashIndexOpts = append(uc.hashIndexOpts, opts...)
	}
}

func WithResolverOptions(opts ...ResolverOption) Option {
	return func(uc *UseCases) {
		uc.resolverOpts = append(uc.resolverOpts, opts...)
	}
}

func New(directory interfaces.Directory, photo interfaces.PhotoFetcher, generator interfaces.AvatarGenerator, opts ...Option) *UseCases {
	uc := &UseCases{}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.avatarStore == nil {
		uc.avatarStore = memory.NewAvatarStore()
	}
	if uc.hashStore == nil {
		uc.hashStore = memory.NewHashStore()
	}

	uc.Resolver = NewAvatarResolver(directory, photo, generator, uc.metrics, uc.resolverOpts...)
	uc.Avatar = NewAvatarCache(uc.Resolver, uc.avatarStore, uc.metrics)
	uc.HashIndex = NewHashIndex(directory, uc.hashStore,
		append([]HashIndexOption{WithHashIndexMetrics(uc.metrics)}, uc.hashIndexOpts...)...)

	return uc
}

// GetAvatar serves the avatar of uid through the cache
func (uc *UseCases) GetAvatar(ctx context.Context, uid string, mode types.Mode, size types.ImageSize) ([]byte, error) {
	return uc.Avatar.Get(ctx, uid, mode, size)
}

func (uc *UseCases) HashIndexMetadata() model.HashIndexMetadata {
	return uc.HashIndex.Metadata()
}

// AvatarByDigest serves the avatar of the user whose email hashes to digest.
// An unknown digest yields nil. ErrHashIndexNotReady is returned before the
// index is populated.
func (uc *UseCases) AvatarByDigest(ctx context.Context, digest string, mode types.Mode, size types.ImageSize) ([]byte, error) {
	uid, err := uc.HashIndex.Lookup(digest)
	if err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, nil
	}

	data, err := uc.Avatar.Get(ctx, uid, mode, size)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get avatar by digest", goerr.V(DigestKey, digest))
	}
	return data, nil
}
