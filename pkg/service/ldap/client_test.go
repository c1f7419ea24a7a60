package ldap_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/secmon-lab/ad2image/pkg/service/ldap"
)

// fakeConn serves a fixed entry list, honouring the paging control
type fakeConn struct {
	mu       sync.Mutex
	entries  []*goldap.Entry
	bindErr  error
	searchFn func(req *goldap.SearchRequest) error

	binds    []string
	requests []*goldap.SearchRequest
	closed   bool
}

func (f *fakeConn) Bind(username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binds = append(f.binds, username)
	return f.bindErr
}

func (f *fakeConn) Search(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if f.searchFn != nil {
		if err := f.searchFn(req); err != nil {
			return nil, err
		}
	}

	paging, ok := goldap.FindControl(req.Controls, goldap.ControlTypePaging).(*goldap.ControlPaging)
	if !ok {
		return &goldap.SearchResult{Entries: f.entries}, nil
	}

	offset := 0
	if len(paging.Cookie) > 0 {
		n, err := strconv.Atoi(string(paging.Cookie))
		if err != nil {
			return nil, err
		}
		offset = n
	}
	end := min(offset+int(paging.PagingSize), len(f.entries))

	resp := goldap.NewControlPaging(paging.PagingSize)
	if end < len(f.entries) {
		resp.SetCookie([]byte(strconv.Itoa(end)))
	}

	return &goldap.SearchResult{
		Entries:  f.entries[offset:end],
		Controls: []goldap.Control{resp},
	}, nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newClient(t *testing.T, cfg ldap.Config, fc *fakeConn) *ldap.Client {
	t.Helper()
	if cfg.URL == "" {
		cfg.URL = "ldap://directory.example.com:389"
	}
	if cfg.SearchBase == "" {
		cfg.SearchBase = "dc=example,dc=com"
	}
	client, err := ldap.New(cfg, ldap.WithDialFunc(func(ctx context.Context, url string) (ldap.Conn, error) {
		return fc, nil
	}))
	gt.NoError(t, err).Required()
	return client
}

func userEntry(uid, mail string) *goldap.Entry {
	return goldap.NewEntry("cn="+uid+",dc=example,dc=com", map[string][]string{
		"uid":  {uid},
		"mail": {mail},
	})
}

func TestNew_Validation(t *testing.T) {
	t.Run("URL is required", func(t *testing.T) {
		_, err := ldap.New(ldap.Config{SearchBase: "dc=example"})
		gt.Value(t, err).NotNil()
	})

	t.Run("search base is required", func(t *testing.T) {
		_, err := ldap.New(ldap.Config{URL: "ldap://localhost"})
		gt.Value(t, err).NotNil()
	})

	t.Run("filter without placeholder is rejected", func(t *testing.T) {
		_, err := ldap.New(ldap.Config{
			URL:              "ldap://localhost",
			SearchBase:       "dc=example",
			UserSearchFilter: "(cn=fixed)",
		})
		gt.Value(t, err).NotNil()
	})
}

func TestUserFilter_EscapesUID(t *testing.T) {
	client := newClient(t, ldap.Config{}, &fakeConn{})

	gt.Value(t, client.UserFilter("dummy.user")).
		Equal("(&(objectClass=organizationalPerson)(cn=dummy.user))")
	gt.Value(t, client.UserFilter("*)(uid=*")).
		Equal(`(&(objectClass=organizationalPerson)(cn=\2a\29\28uid=\2a))`)
}

func TestFindUsers(t *testing.T) {
	photo := []byte{0xff, 0xd8, 0xff, 0xe0}
	entry := goldap.NewEntry("cn=dummy.user,dc=example,dc=com", map[string][]string{
		"uid":            {"dummy.user"},
		"mail":           {"dummy.user@example.com"},
		"thumbnailPhoto": {string(photo)},
	})

	t.Run("maps attributes including photo", func(t *testing.T) {
		fc := &fakeConn{entries: []*goldap.Entry{entry}}
		client := newClient(t, ldap.Config{BindDN: "cn=reader", Password: "pw"}, fc)

		users, err := client.FindUsers(context.Background(), "dummy.user")
		gt.NoError(t, err).Required()
		gt.Array(t, users).Length(1).Required()
		gt.Value(t, users[0].UID).Equal("dummy.user")
		gt.Value(t, users[0].Email).Equal("dummy.user@example.com")
		gt.Value(t, users[0].Photo).Equal(photo)

		gt.Array(t, fc.binds).Length(1)
		gt.Value(t, fc.binds[0]).Equal("cn=reader")
		gt.Bool(t, fc.closed).True()

		gt.Array(t, fc.requests).Length(1).Required()
		req := fc.requests[0]
		gt.Value(t, req.BaseDN).Equal("dc=example,dc=com")
		gt.Value(t, req.Scope).Equal(goldap.ScopeWholeSubtree)
		gt.Value(t, req.Attributes).Equal([]string{"uid", "mail", "thumbnailPhoto"})
		gt.Value(t, req.Filter).Equal("(&(objectClass=organizationalPerson)(cn=dummy.user))")
	})

	t.Run("anonymous access skips bind", func(t *testing.T) {
		fc := &fakeConn{entries: []*goldap.Entry{userEntry("alice", "alice@example.com")}}
		client := newClient(t, ldap.Config{}, fc)

		users, err := client.FindUsers(context.Background(), "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, users).Length(1).Required()
		gt.Bool(t, users[0].HasPhoto()).False()
		gt.Array(t, fc.binds).Length(0)
	})

	t.Run("custom attribute mapping", func(t *testing.T) {
		fc := &fakeConn{entries: []*goldap.Entry{
			goldap.NewEntry("cn=bob", map[string][]string{
				"sAMAccountName": {"bob"},
				"userPrincipal":  {"bob@example.com"},
			}),
		}}
		client := newClient(t, ldap.Config{
			UIDAttribute:     "sAMAccountName",
			MailAttribute:    "userPrincipal",
			PhotoAttribute:   "jpegPhoto",
			UserSearchFilter: "(sAMAccountName={uid})",
		}, fc)

		users, err := client.FindUsers(context.Background(), "bob")
		gt.NoError(t, err).Required()
		gt.Array(t, users).Length(1).Required()
		gt.Value(t, users[0].UID).Equal("bob")
		gt.Value(t, users[0].Email).Equal("bob@example.com")
		gt.Value(t, fc.requests[0].Filter).Equal("(sAMAccountName=bob)")
	})

	t.Run("zero matches is not an error", func(t *testing.T) {
		client := newClient(t, ldap.Config{}, &fakeConn{})

		users, err := client.FindUsers(context.Background(), "nobody")
		gt.NoError(t, err).Required()
		gt.Array(t, users).Length(0)
	})

	t.Run("bind failure is returned", func(t *testing.T) {
		fc := &fakeConn{bindErr: errors.New("invalid credentials")}
		client := newClient(t, ldap.Config{BindDN: "cn=reader", Password: "bad"}, fc)

		_, err := client.FindUsers(context.Background(), "alice")
		gt.Value(t, err).NotNil()
		gt.Bool(t, fc.closed).True()
	})

	t.Run("search failure is returned", func(t *testing.T) {
		fc := &fakeConn{searchFn: func(req *goldap.SearchRequest) error {
			return errors.New("server down")
		}}
		client := newClient(t, ldap.Config{}, fc)

		_, err := client.FindUsers(context.Background(), "alice")
		gt.Value(t, err).NotNil()
	})

	t.Run("dial failure is returned", func(t *testing.T) {
		client, err := ldap.New(ldap.Config{URL: "ldap://localhost", SearchBase: "dc=example"},
			ldap.WithDialFunc(func(ctx context.Context, url string) (ldap.Conn, error) {
				return nil, errors.New("connection refused")
			}))
		gt.NoError(t, err).Required()

		_, err = client.FindUsers(context.Background(), "alice")
		gt.Value(t, err).NotNil()
	})
}

func TestScanUsers(t *testing.T) {
	const filter = "(&(objectClass=organizationalPerson)(mail=*))"

	t.Run("collects every user across pages", func(t *testing.T) {
		var entries []*goldap.Entry
		for i := 0; i < 23; i++ {
			entries = append(entries, userEntry(fmt.Sprintf("user%02d", i), fmt.Sprintf("user%02d@example.com", i)))
		}
		fc := &fakeConn{entries: entries}
		client := newClient(t, ldap.Config{}, fc)

		seen := map[string]int{}
		var pages []int
		err := client.ScanUsers(context.Background(), filter, 5, func(page []*model.User) error {
			pages = append(pages, len(page))
			for _, u := range page {
				seen[u.UID]++
			}
			return nil
		})
		gt.NoError(t, err).Required()

		gt.Value(t, pages).Equal([]int{5, 5, 5, 5, 3})
		gt.Value(t, len(seen)).Equal(23)
		for uid, n := range seen {
			if n != 1 {
				t.Errorf("user %s seen %d times", uid, n)
			}
		}

		gt.Array(t, fc.requests).Length(5).Required()
		gt.Value(t, fc.requests[0].Filter).Equal(filter)
		gt.Value(t, fc.requests[0].Attributes).Equal([]string{"uid", "mail"})
	})

	t.Run("single page when directory fits", func(t *testing.T) {
		fc := &fakeConn{entries: []*goldap.Entry{userEntry("a", "a@example.com"), userEntry("b", "b@example.com")}}
		client := newClient(t, ldap.Config{}, fc)

		calls := 0
		err := client.ScanUsers(context.Background(), filter, 500, func(page []*model.User) error {
			calls++
			gt.Array(t, page).Length(2)
			return nil
		})
		gt.NoError(t, err).Required()
		gt.Value(t, calls).Equal(1)
	})

	t.Run("callback error stops the scan", func(t *testing.T) {
		var entries []*goldap.Entry
		for i := 0; i < 10; i++ {
			entries = append(entries, userEntry(fmt.Sprintf("u%d", i), ""))
		}
		fc := &fakeConn{entries: entries}
		client := newClient(t, ldap.Config{}, fc)

		stop := errors.New("stop")
		calls := 0
		err := client.ScanUsers(context.Background(), filter, 3, func(page []*model.User) error {
			calls++
			return stop
		})
		gt.Error(t, err).Is(stop)
		gt.Value(t, calls).Equal(1)
	})

	t.Run("canceled context stops the scan", func(t *testing.T) {
		fc := &fakeConn{entries: []*goldap.Entry{userEntry("a", "a@example.com")}}
		client := newClient(t, ldap.Config{}, fc)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.ScanUsers(ctx, filter, 10, func(page []*model.User) error {
			return nil
		})
		gt.Value(t, err).NotNil()
		gt.Array(t, fc.requests).Length(0)
	})

	t.Run("non-positive page size is rejected", func(t *testing.T) {
		client := newClient(t, ldap.Config{}, &fakeConn{})
		err := client.ScanUsers(context.Background(), filter, 0, func(page []*model.User) error {
			return nil
		})
		gt.Value(t, err).NotNil()
	})
}

func TestPing(t *testing.T) {
	t.Run("binds and closes", func(t *testing.T) {
		fc := &fakeConn{}
		client := newClient(t, ldap.Config{BindDN: "cn=reader", Password: "secret"}, fc)

		gt.NoError(t, client.Ping(context.Background()))
		gt.Array(t, fc.binds).Length(1)
		gt.Bool(t, fc.closed).True()
	})

	t.Run("bind failure is reported", func(t *testing.T) {
		fc := &fakeConn{bindErr: errors.New("invalid credentials")}
		client := newClient(t, ldap.Config{BindDN: "cn=reader", Password: "wrong"}, fc)

		gt.Value(t, client.Ping(context.Background())).NotNil()
		gt.Bool(t, fc.closed).True()
	})
}
