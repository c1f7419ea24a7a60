package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	goredis "github.com/redis/go-redis/v9"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/repository/memory"
	"github.com/secmon-lab/ad2image/pkg/repository/redis"
)

func runAvatarStoreTest(t *testing.T, newStore func(t *testing.T) interfaces.AvatarStore) {
	t.Helper()

	uniqueUID := func(name string) string {
		return fmt.Sprintf("%s.%d", name, time.Now().UnixNano())
	}

	t.Run("Get on missing key reports absence", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		data, ok, err := store.Get(ctx, model.NewCacheKey(uniqueUID("missing"), types.ModeIdenticon, types.ImageSize64))
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()
		gt.B(t, data == nil).True()
	})

	t.Run("Put then Get returns stored bytes", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.NewCacheKey(uniqueUID("photo"), types.ModeIdenticon, types.ImageSize240)

		gt.NoError(t, store.Put(ctx, key, []byte("image-bytes"))).Required()

		data, ok, err := store.Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
		gt.Value(t, data).Equal([]byte("image-bytes"))
	})

	t.Run("stored nothing is a hit", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.NewCacheKey(uniqueUID("nobody"), types.ModeNotFound, types.ImageSize64)

		gt.NoError(t, store.Put(ctx, key, nil)).Required()

		data, ok, err := store.Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
		gt.B(t, data == nil).True()
	})

	t.Run("keys differing in mode or size are independent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		uid := uniqueUID("multi")

		gt.NoError(t, store.Put(ctx, model.NewCacheKey(uid, types.ModeIdenticon, types.ImageSize64), []byte("a"))).Required()
		gt.NoError(t, store.Put(ctx, model.NewCacheKey(uid, types.ModeIdenticon, types.ImageSize96), []byte("b"))).Required()

		_, ok, err := store.Get(ctx, model.NewCacheKey(uid, types.ModeSquare, types.ImageSize64))
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()

		data, ok, err := store.Get(ctx, model.NewCacheKey(uid, types.ModeIdenticon, types.ImageSize96))
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
		gt.Value(t, data).Equal([]byte("b"))
	})

	t.Run("last write wins", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.NewCacheKey(uniqueUID("overwrite"), types.ModeGithub, types.ImageSize120)

		gt.NoError(t, store.Put(ctx, key, []byte("first"))).Required()
		gt.NoError(t, store.Put(ctx, key, []byte("second"))).Required()

		data, _, err := store.Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Value(t, data).Equal([]byte("second"))
	})

	t.Run("concurrent writers and readers", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		uid := uniqueUID("concurrent")

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := model.NewCacheKey(uid, types.ModeIdenticon, types.AllImageSizes()[i%len(types.AllImageSizes())])
				_ = store.Put(ctx, key, []byte{byte(i)})
				_, _, _ = store.Get(ctx, key)
			}(i)
		}
		wg.Wait()

		for _, size := range types.AllImageSizes() {
			_, ok, err := store.Get(ctx, model.NewCacheKey(uid, types.ModeIdenticon, size))
			gt.NoError(t, err).Required()
			gt.Bool(t, ok).True()
		}
	})
}

func newRedisAvatarStore(t *testing.T) interfaces.AvatarStore {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	store := redis.NewAvatarStore(client, redis.WithKeyPrefix("ad2image-test:"))
	t.Cleanup(func() {
		gt.NoError(t, store.Close())
	})
	return store
}

func TestMemoryAvatarStore(t *testing.T) {
	runAvatarStoreTest(t, func(t *testing.T) interfaces.AvatarStore {
		return memory.NewAvatarStore()
	})
}

func TestRedisAvatarStore(t *testing.T) {
	runAvatarStoreTest(t, newRedisAvatarStore)
}

func TestMemoryHashStore(t *testing.T) {
	store := memory.NewHashStore()

	_, ok := store.Get("abc")
	gt.Bool(t, ok).False()
	gt.Value(t, store.Len()).Equal(0)

	store.Put("abc", "alice")
	store.Put("def", "bob")
	store.Put("abc", "alice2")

	uid, ok := store.Get("abc")
	gt.Bool(t, ok).True()
	gt.Value(t, uid).Equal("alice2")
	gt.Value(t, store.Len()).Equal(2)
}

func TestMemoryHashStore_Concurrent(t *testing.T) {
	store := memory.NewHashStore()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				store.Put(fmt.Sprintf("digest-%d", i), fmt.Sprintf("user-%d", i))
				_, _ = store.Get(fmt.Sprintf("digest-%d", i))
			}
		}()
	}
	wg.Wait()

	gt.Value(t, store.Len()).Equal(100)
}
