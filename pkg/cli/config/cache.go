package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/repository/memory"
	"github.com/secmon-lab/ad2image/pkg/repository/redis"
	"github.com/urfave/cli/v3"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Cache selects the avatar cache backend
type Cache struct {
	backend       string
	redisAddr     string
	redisPassword string
	redisDB       int
}

func (x *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cache-backend",
			Usage:       "Avatar cache backend [memory|redis]",
			Category:    "Cache",
			Value:       CacheBackendMemory,
			Sources:     cli.EnvVars("AD2IMAGE_CACHE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address (host:port), required for redis backend",
			Category:    "Cache",
			Sources:     cli.EnvVars("AD2IMAGE_REDIS_ADDR"),
			Destination: &x.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Category:    "Cache",
			Sources:     cli.EnvVars("AD2IMAGE_REDIS_PASSWORD"),
			Destination: &x.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Category:    "Cache",
			Sources:     cli.EnvVars("AD2IMAGE_REDIS_DB"),
			Destination: &x.redisDB,
		},
	}
}

func (x Cache) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("backend", x.backend),
	}
	if x.backend == CacheBackendRedis {
		attrs = append(attrs,
			slog.String("redis_addr", x.redisAddr),
			slog.Int("redis_password.len", len(x.redisPassword)),
			slog.Int("redis_db", x.redisDB),
		)
	}
	return slog.GroupValue(attrs...)
}

// Configure creates the avatar store. The returned function releases the
// backend connection.
func (x *Cache) Configure(ctx context.Context) (interfaces.AvatarStore, func(), error) {
	switch x.backend {
	case CacheBackendMemory, "":
		return memory.NewAvatarStore(), func() {}, nil

	case CacheBackendRedis:
		if x.redisAddr == "" {
			return nil, nil, goerr.Wrap(ErrMissingFlag, "redis address is required for redis backend",
				goerr.V(FlagKey, "redis-addr"))
		}

		client := goredis.NewClient(&goredis.Options{
			Addr:     x.redisAddr,
			Password: x.redisPassword,
			DB:       x.redisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", x.redisAddr))
		}

		store := redis.NewAvatarStore(client)
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidBackend, "unsupported cache backend",
			goerr.V("backend", x.backend))
	}
}
