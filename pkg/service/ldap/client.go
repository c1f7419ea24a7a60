package ldap

import (
	"context"
	"net"
	"strings"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
)

const (
	// UIDPlaceholder is replaced by the escaped uid in the user search filter
	UIDPlaceholder = "{uid}"

	DefaultUIDAttribute     = "uid"
	DefaultMailAttribute    = "mail"
	DefaultPhotoAttribute   = "thumbnailPhoto"
	DefaultUserSearchFilter = "(&(objectClass=organizationalPerson)(cn={uid}))"
	DefaultDialTimeout      = 10 * time.Second
)

// Config holds the connection and attribute mapping of the directory
type Config struct {
	URL        string
	BindDN     string
	Password   string
	SearchBase string

	UIDAttribute     string
	MailAttribute    string
	PhotoAttribute   string
	UserSearchFilter string
}

// conn is the subset of *goldap.Conn used by Client
type conn interface {
	Bind(username, password string) error
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	Close() error
}

type dialFunc func(ctx context.Context, url string) (conn, error)

// Client implements interfaces.Directory on top of go-ldap. A fresh
// connection is dialed and bound for every call.
type Client struct {
	cfg         Config
	dialTimeout time.Duration
	dial        dialFunc
}

var _ interfaces.Directory = &Client{}

// Option is a functional option for Client
type Option func(*Client)

// WithDialTimeout sets the TCP dial timeout
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.dialTimeout = d
	}
}

// New creates a directory client. Empty attribute names and filter take their defaults.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, goerr.New("LDAP URL is required")
	}
	if cfg.SearchBase == "" {
		return nil, goerr.New("LDAP search base is required")
	}
	if cfg.UIDAttribute == "" {
		cfg.UIDAttribute = DefaultUIDAttribute
	}
	if cfg.MailAttribute == "" {
		cfg.MailAttribute = DefaultMailAttribute
	}
	if cfg.PhotoAttribute == "" {
		cfg.PhotoAttribute = DefaultPhotoAttribute
	}
	if cfg.UserSearchFilter == "" {
		cfg.UserSearchFilter = DefaultUserSearchFilter
	}
	if !strings.Contains(cfg.UserSearchFilter, UIDPlaceholder) {
		return nil, goerr.New("user search filter must contain uid placeholder",
			goerr.V("filter", cfg.UserSearchFilter),
			goerr.V("placeholder", UIDPlaceholder))
	}

	c := &Client{
		cfg:         cfg,
		dialTimeout: DefaultDialTimeout,
	}
	c.dial = c.dialLDAP

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) dialLDAP(ctx context.Context, url string) (conn, error) {
	dialer := &net.Dialer{Timeout: c.dialTimeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	return goldap.DialURL(url, goldap.DialWithDialer(dialer))
}

// connect dials and binds. Bind is skipped for anonymous access.
func (c *Client) connect(ctx context.Context) (conn, error) {
	cn, err := c.dial(ctx, c.cfg.URL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to dial LDAP server", goerr.V("url", c.cfg.URL))
	}

	if c.cfg.BindDN != "" {
		if err := cn.Bind(c.cfg.BindDN, c.cfg.Password); err != nil {
			_ = cn.Close()
			return nil, goerr.Wrap(err, "failed to bind to LDAP server",
				goerr.V("url", c.cfg.URL),
				goerr.V("bind_dn", c.cfg.BindDN))
		}
	}

	return cn, nil
}

// Ping dials and binds once to verify connectivity and credentials
func (c *Client) Ping(ctx context.Context) error {
	cn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return cn.Close()
}

// UserFilter substitutes the escaped uid into the user search filter
func (c *Client) UserFilter(uid string) string {
	return strings.ReplaceAll(c.cfg.UserSearchFilter, UIDPlaceholder, goldap.EscapeFilter(uid))
}

// FindUsers runs a non-paged subtree search for uid
func (c *Client) FindUsers(ctx context.Context, uid string) ([]*model.User, error) {
	filter := c.UserFilter(uid)
	logging.From(ctx).Debug("searching directory", "uid", uid, "filter", filter)

	cn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cn.Close() }()

	req := goldap.NewSearchRequest(
		c.cfg.SearchBase,
		goldap.ScopeWholeSubtree,
		goldap.NeverDerefAliases,
		0, 0, false,
		filter,
		[]string{c.cfg.UIDAttribute, c.cfg.MailAttribute, c.cfg.PhotoAttribute},
		nil,
	)

	res, err := cn.Search(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search directory",
			goerr.V("uid", uid),
			goerr.V("filter", filter),
			goerr.V("base", c.cfg.SearchBase))
	}

	users := make([]*model.User, 0, len(res.Entries))
	for _, entry := range res.Entries {
		users = append(users, c.toUser(entry, true))
	}
	return users, nil
}

// ScanUsers runs an RFC 2696 paged search and hands each page to fn. The
// scan stops when the server returns an empty cookie, fn fails, or ctx is done.
func (c *Client) ScanUsers(ctx context.Context, filter string, pageSize int, fn func(page []*model.User) error) error {
	if pageSize <= 0 {
		return goerr.New("page size must be positive", goerr.V("page_size", pageSize))
	}

	cn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cn.Close() }()

	paging := goldap.NewControlPaging(uint32(pageSize)) // #nosec G115 -- checked positive above
	req := goldap.NewSearchRequest(
		c.cfg.SearchBase,
		goldap.ScopeWholeSubtree,
		goldap.NeverDerefAliases,
		0, 0, false,
		filter,
		[]string{c.cfg.UIDAttribute, c.cfg.MailAttribute},
		[]goldap.Control{paging},
	)

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "directory scan canceled", goerr.V("page", pageNum))
		}

		res, err := cn.Search(req)
		if err != nil {
			return goerr.Wrap(err, "failed to search directory page",
				goerr.V("filter", filter),
				goerr.V("base", c.cfg.SearchBase),
				goerr.V("page", pageNum))
		}

		page := make([]*model.User, 0, len(res.Entries))
		for _, entry := range res.Entries {
			page = append(page, c.toUser(entry, false))
		}
		if err := fn(page); err != nil {
			return err
		}

		ctrl, ok := goldap.FindControl(res.Controls, goldap.ControlTypePaging).(*goldap.ControlPaging)
		if !ok || len(ctrl.Cookie) == 0 {
			return nil
		}
		paging.SetCookie(ctrl.Cookie)
	}
}

func (c *Client) toUser(entry *goldap.Entry, withPhoto bool) *model.User {
	user := &model.User{
		UID:   entry.GetAttributeValue(c.cfg.UIDAttribute),
		Email: entry.GetAttributeValue(c.cfg.MailAttribute),
	}
	if withPhoto {
		if photo := entry.GetRawAttributeValue(c.cfg.PhotoAttribute); len(photo) > 0 {
			user.Photo = photo
		}
	}
	return user
}
