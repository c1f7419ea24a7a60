package photo

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
)

const (
	// DefaultTimeout bounds a single photo request
	DefaultTimeout = 10 * time.Second

	getUserPhotoPath = "/s/GetUserPhoto"
)

// Client fetches user photos from an Exchange Web Services style endpoint
type Client struct {
	client *resty.Client
}

var _ interfaces.PhotoFetcher = &Client{}

type config struct {
	username  string
	password  string
	timeout   time.Duration
	transport http.RoundTripper
}

// Option is a functional option for Client
type Option func(*config)

// WithBasicAuth sets the credentials sent with every request
func WithBasicAuth(username, password string) Option {
	return func(c *config) {
		c.username = username
		c.password = password
	}
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithTransport replaces the HTTP transport, mainly for tests
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		c.transport = rt
	}
}

// New creates a photo client for the service rooted at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, goerr.New("photo service URL is required")
	}

	cfg := &config{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.timeout)
	if cfg.username != "" {
		rc.SetBasicAuth(cfg.username, cfg.password)
	}
	if cfg.transport != nil {
		rc.SetTransport(cfg.transport)
	}

	return &Client{client: rc}, nil
}

// Fetch requests the photo of email at sizeToken. Any failure is logged and
// reported as nil; callers never see an error. The address is kept out of
// the logs, so callers put the uid on the context logger.
func (c *Client) Fetch(ctx context.Context, email, sizeToken string) []byte {
	logger := logging.From(ctx).With("size", sizeToken)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"email": email,
			"size":  sizeToken,
		}).
		Get(getUserPhotoPath)
	if err != nil {
		logger.Error("failed to request user photo", "error", stripURL(err))
		return nil
	}

	if resp.StatusCode() != http.StatusOK {
		logger.Warn("photo service returned non-OK status",
			"status", resp.StatusCode(),
			"body_size", len(resp.Body()))
		return nil
	}

	body := resp.Body()
	if len(body) == 0 {
		logger.Warn("photo service returned empty body")
		return nil
	}

	logger.Debug("fetched user photo", "bytes", len(body))
	return body
}

// stripURL drops the request URL, which carries the email query parameter
func stripURL(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Op + " " + getUserPhotoPath + ": " + urlErr.Err.Error()
	}
	return err.Error()
}
