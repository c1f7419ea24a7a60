package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/metrics"
	"github.com/secmon-lab/ad2image/pkg/utils/errutil"
	"github.com/secmon-lab/ad2image/pkg/utils/safe"
)

// CacheMaxAge is sent with every image response
const CacheMaxAge = 24 * time.Hour

// UseCases is what the HTTP layer needs from the avatar use cases
type UseCases interface {
	GetAvatar(ctx context.Context, uid string, mode types.Mode, size types.ImageSize) ([]byte, error)
	AvatarByDigest(ctx context.Context, digest string, mode types.Mode, size types.ImageSize) ([]byte, error)
	HashIndexMetadata() model.HashIndexMetadata
}

type Server struct {
	router      *chi.Mux
	uc          UseCases
	defaultMode types.Mode
	gravatar    bool
	metrics     *metrics.Metrics
}

type Options func(*Server)

// WithDefaultMode sets the mode used when a request names none or an unknown one
func WithDefaultMode(mode types.Mode) Options {
	return func(s *Server) {
		s.defaultMode = mode
	}
}

// WithGravatar enables the /gravatar endpoint
func WithGravatar(enabled bool) Options {
	return func(s *Server) {
		s.gravatar = enabled
	}
}

// WithMetrics enables request metrics and the /metrics endpoint
func WithMetrics(m *metrics.Metrics) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

func New(uc UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}

	r := chi.NewRouter()

	s := &Server{
		router:      r,
		uc:          uc,
		defaultMode: types.ModeFallbackGeneric,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.defaultMode.IsValid() {
		return nil, goerr.New("invalid default mode", goerr.V("mode", s.defaultMode.String()))
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(metricsMiddleware(s.metrics))
	}

	r.Get("/avatar", s.avatarHandler)
	if s.gravatar {
		r.Get("/gravatar/{hash}", s.gravatarHandler)
	}
	r.Get("/health", s.healthHandler)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// writeImage sends avatar bytes with a sniffed content type
func writeImage(w http.ResponseWriter, r *http.Request, data []byte) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "max-age="+formatSeconds(CacheMaxAge))
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, data)
}

type healthResponse struct {
	Status    string            `json:"status"`
	HashIndex *hashIndexSummary `json:"hash_index,omitempty"`
}

type hashIndexSummary struct {
	State              string     `json:"state"`
	Entries            int        `json:"entries"`
	LastRefreshSuccess *time.Time `json:"last_refresh_success,omitempty"`
	LastRefreshAttempt *time.Time `json:"last_refresh_attempt,omitempty"`
}

// healthHandler answers 200 while the service can serve requests. With the
// gravatar endpoint enabled that requires a populated hash index.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK

	if s.gravatar {
		meta := s.uc.HashIndexMetadata()
		summary := &hashIndexSummary{
			State:   string(meta.State),
			Entries: meta.EntryCount,
		}
		if !meta.LastRefreshSuccess.IsZero() {
			summary.LastRefreshSuccess = &meta.LastRefreshSuccess
		}
		if !meta.LastRefreshAttempt.IsZero() {
			summary.LastRefreshAttempt = &meta.LastRefreshAttempt
		}
		resp.HashIndex = summary

		if meta.LastRefreshSuccess.IsZero() {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal health response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
