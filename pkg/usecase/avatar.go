package usecase

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/metrics"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
)

// AvatarResolver decides which image to serve for a uid: the directory
// photo, the remote photo, a generated placeholder, or nothing.
type AvatarResolver struct {
	directory  interfaces.Directory
	photo      interfaces.PhotoFetcher
	generator  interfaces.AvatarGenerator
	metrics    *metrics.Metrics
	nativeSize types.ImageSize
}

type ResolverOption func(*AvatarResolver)

// WithNativeSize sets the size the directory photo attribute is stored in.
// Requests for that size are answered from the directory without a remote call.
func WithNativeSize(size types.ImageSize) ResolverOption {
	return func(r *AvatarResolver) {
		r.nativeSize = size
	}
}

func NewAvatarResolver(directory interfaces.Directory, photo interfaces.PhotoFetcher, generator interfaces.AvatarGenerator, m *metrics.Metrics, opts ...ResolverOption) *AvatarResolver {
	r := &AvatarResolver{
		directory:  directory,
		photo:      photo,
		generator:  generator,
		metrics:    m,
		nativeSize: types.DefaultImageSize(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the avatar bytes, or nil when nothing should be served.
// Only directory failures are returned as errors.
func (r *AvatarResolver) Resolve(ctx context.Context, uid string, mode types.Mode, size types.ImageSize) ([]byte, error) {
	logger := logging.From(ctx).With(UIDKey, uid, ModeKey, mode.String(), SizeKey, int(size))

	users, err := r.directory.FindUsers(ctx, uid)
	if err != nil {
		r.metrics.ObserveResolution(metrics.OutcomeError)
		return nil, goerr.Wrap(err, "failed to look up user in directory",
			goerr.V(UIDKey, uid),
			goerr.V(ModeKey, mode.String()),
			goerr.V(SizeKey, int(size)))
	}

	if len(users) != 1 {
		logger.Debug("user not resolvable", "matches", len(users))
		if !mode.IsFallback() {
			r.metrics.ObserveResolution(metrics.OutcomeNone)
			return nil, nil
		}
		return r.generate(ctx, uid, mode, size)
	}

	user := users[0]
	if !user.HasPhoto() {
		return r.generate(ctx, uid, mode, size)
	}

	if size == r.nativeSize {
		logger.Debug("serving directory photo", "bytes", len(user.Photo))
		r.metrics.ObserveResolution(metrics.OutcomeDirectoryPhoto)
		return user.Photo, nil
	}

	logger.Debug("fetching remote photo")
	data := r.photo.Fetch(logging.With(ctx, logger), user.Email, size.Token())
	if len(data) == 0 {
		r.metrics.ObserveResolution(metrics.OutcomeNone)
		return nil, nil
	}
	r.metrics.ObserveResolution(metrics.OutcomeRemotePhoto)
	return data, nil
}

func (r *AvatarResolver) generate(ctx context.Context, uid string, mode types.Mode, size types.ImageSize) ([]byte, error) {
	style, ok := mode.Style()
	if !ok {
		r.metrics.ObserveResolution(metrics.OutcomeNone)
		return nil, nil
	}

	data, err := r.generator.Generate(style, xxhash.Sum64String(uid), size)
	if err != nil {
		r.metrics.ObserveResolution(metrics.OutcomeError)
		return nil, goerr.Wrap(err, "failed to generate avatar",
			goerr.V(UIDKey, uid),
			goerr.V(ModeKey, mode.String()),
			goerr.V(SizeKey, int(size)))
	}

	logging.From(ctx).Debug("generated avatar",
		UIDKey, uid,
		"style", style.String(),
		SizeKey, int(size))
	r.metrics.ObserveResolution(metrics.OutcomeGenerated)
	return data, nil
}
