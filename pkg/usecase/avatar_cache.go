package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/metrics"
	"github.com/secmon-lab/ad2image/pkg/utils/errutil"
	"golang.org/x/sync/singleflight"
)

// Resolver produces the avatar for a key on a cache miss
type Resolver interface {
	Resolve(ctx context.Context, uid string, mode types.Mode, size types.ImageSize) ([]byte, error)
}

// AvatarCache memoizes Resolver results per (uid, mode, size). A stored nil
// is a hit, so unresolvable keys are not retried. Errors are not stored.
type AvatarCache struct {
	resolver Resolver
	store    interfaces.AvatarStore
	group    singleflight.Group
	metrics  *metrics.Metrics
}

func NewAvatarCache(resolver Resolver, store interfaces.AvatarStore, m *metrics.Metrics) *AvatarCache {
	return &AvatarCache{
		resolver: resolver,
		store:    store,
		metrics:  m,
	}
}

// Get returns the cached avatar for the key, resolving it at most once
func (c *AvatarCache) Get(ctx context.Context, uid string, mode types.Mode, size types.ImageSize) ([]byte, error) {
	key := model.NewCacheKey(uid, mode, size)

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read avatar cache",
			goerr.V(UIDKey, uid),
			goerr.V(ModeKey, mode.String()),
			goerr.V(SizeKey, int(size)))
	}
	if ok {
		c.metrics.ObserveCacheLookup(true)
		return data, nil
	}
	c.metrics.ObserveCacheLookup(false)

	// The flight is shared by every waiter, so it must not die with the
	// first caller's request.
	flightCtx := context.WithoutCancel(ctx)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A previous flight may have finished between the store read above and Do
		if data, ok, err := c.store.Get(flightCtx, key); err == nil && ok {
			return data, nil
		}

		data, err := c.resolver.Resolve(flightCtx, uid, mode, size)
		if err != nil {
			return nil, err
		}

		if err := c.store.Put(flightCtx, key, data); err != nil {
			_ = errutil.Handle(flightCtx, goerr.Wrap(err, "failed to store avatar",
				goerr.V(UIDKey, uid),
				goerr.V(ModeKey, mode.String()),
				goerr.V(SizeKey, int(size))), "avatar cache write failed")
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	data, _ = v.([]byte)
	return data, nil
}
