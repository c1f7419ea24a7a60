package ldap

import (
	"context"

	goldap "github.com/go-ldap/ldap/v3"
)

// Conn exposes the connection interface for fakes
type Conn interface {
	Bind(username, password string) error
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	Close() error
}

func WithDialFunc(f func(ctx context.Context, url string) (Conn, error)) Option {
	return func(c *Client) {
		c.dial = func(ctx context.Context, url string) (conn, error) {
			return f(ctx, url)
		}
	}
}
