package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/usecase"
	"github.com/secmon-lab/ad2image/pkg/utils/errutil"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
)

const (
	gravatarDefaultPixels = 80
	gravatarMaxPixels     = 2048
)

// gravatarSize maps the s/size parameter onto the nearest supported size
func gravatarSize(raw string) types.ImageSize {
	px, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || px <= 0 {
		px = gravatarDefaultPixels
	}
	if px > gravatarMaxPixels {
		px = gravatarMaxPixels
	}
	return types.NearestImageSize(px)
}

// gravatarMode maps the d/default parameter. Only the values a Gravatar
// client may send are recognised; anything else gets the default mode.
func gravatarMode(raw string, def types.Mode) types.Mode {
	switch strings.ToLower(raw) {
	case "404":
		return types.ModeNotFound
	case "identicon":
		return types.ModeFallbackIdenticon
	default:
		return def
	}
}

// firstOf returns the first non-empty query value among keys
func firstOf(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, key := range keys {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// gravatarHandler serves GET /gravatar/{hash}?d=&s= for Gravatar compatible clients
func (s *Server) gravatarHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// clients may append an extension such as .jpg
	digest := chi.URLParam(r, "hash")
	if i := strings.IndexByte(digest, '.'); i >= 0 {
		digest = digest[:i]
	}
	mode := gravatarMode(firstOf(r, "d", "default"), s.defaultMode)
	size := gravatarSize(firstOf(r, "s", "size"))

	data, err := s.uc.AvatarByDigest(ctx, digest, mode, size)
	if errors.Is(err, usecase.ErrHashIndexNotReady) {
		logging.From(ctx).Warn("gravatar request before hash index is ready", "digest", digest)
		http.NotFound(w, r)
		return
	}
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		http.NotFound(w, r)
		return
	}

	writeImage(w, r, data)
}
