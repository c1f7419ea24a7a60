package usecase_test

import (
	"context"
	"sync"

	"github.com/secmon-lab/ad2image/pkg/domain/model"
)

// mockDirectory serves users from memory. FindUsers matches on UID.
type mockDirectory struct {
	mu        sync.Mutex
	users     []*model.User
	findErr   error
	scanErr   error
	scanGate  chan struct{} // when set, ScanUsers signals scanStart and waits on it
	scanStart chan struct{}

	findCalls int
	scanCalls int
	lastScan  struct {
		filter   string
		pageSize int
	}
}

func (m *mockDirectory) setUsers(users ...*model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

func (m *mockDirectory) FindUsers(ctx context.Context, uid string) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}

	var found []*model.User
	for _, u := range m.users {
		if u.UID == uid {
			found = append(found, u)
		}
	}
	return found, nil
}

func (m *mockDirectory) ScanUsers(ctx context.Context, filter string, pageSize int, fn func(page []*model.User) error) error {
	m.mu.Lock()
	m.scanCalls++
	m.lastScan.filter = filter
	m.lastScan.pageSize = pageSize
	users := append([]*model.User(nil), m.users...)
	scanErr := m.scanErr
	gate, start := m.scanGate, m.scanStart
	m.mu.Unlock()

	if gate != nil {
		start <- struct{}{}
		<-gate
	}
	if scanErr != nil {
		return scanErr
	}

	for i := 0; i < len(users); i += pageSize {
		end := min(i+pageSize, len(users))
		page := make([]*model.User, 0, end-i)
		for _, u := range users[i:end] {
			page = append(page, &model.User{UID: u.UID, Email: u.Email})
		}
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockDirectory) FindCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

func (m *mockDirectory) ScanCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanCalls
}

type photoCall struct {
	email     string
	sizeToken string
}

// mockPhotoFetcher returns a fixed response and records its calls
type mockPhotoFetcher struct {
	mu    sync.Mutex
	data  []byte
	calls []photoCall
}

func (m *mockPhotoFetcher) Fetch(ctx context.Context, email, sizeToken string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, photoCall{email: email, sizeToken: sizeToken})
	return m.data
}

func (m *mockPhotoFetcher) Calls() []photoCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]photoCall(nil), m.calls...)
}
