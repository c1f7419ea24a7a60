package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/secmon-lab/ad2image/pkg/metrics"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
)

const (
	DefaultHashIndexFilter   = "(&(objectClass=organizationalPerson)(mail=*))"
	DefaultHashIndexPageSize = 500
)

// HashIndex maps email digests to uids. It is filled by a full paged
// directory scan and extended by later scans; entries are never removed.
//
// Lookups fail with ErrHashIndexNotReady until the first scan completes.
// Later scans write into the same store page by page, so readers see new
// entries as soon as they arrive.
type HashIndex struct {
	directory interfaces.Directory
	store     interfaces.HashStore
	filter    string
	pageSize  int
	metrics   *metrics.Metrics

	ready  atomic.Bool
	scanMu sync.Mutex // held for the duration of a scan

	metaMu sync.RWMutex
	meta   model.HashIndexMetadata
}

type HashIndexOption func(*HashIndex)

// WithHashIndexFilter overrides DefaultHashIndexFilter
func WithHashIndexFilter(filter string) HashIndexOption {
	return func(x *HashIndex) {
		x.filter = filter
	}
}

// WithHashIndexPageSize overrides DefaultHashIndexPageSize
func WithHashIndexPageSize(size int) HashIndexOption {
	return func(x *HashIndex) {
		x.pageSize = size
	}
}

func WithHashIndexMetrics(m *metrics.Metrics) HashIndexOption {
	return func(x *HashIndex) {
		x.metrics = m
	}
}

func NewHashIndex(directory interfaces.Directory, store interfaces.HashStore, opts ...HashIndexOption) *HashIndex {
	x := &HashIndex{
		directory: directory,
		store:     store,
		filter:    DefaultHashIndexFilter,
		pageSize:  DefaultHashIndexPageSize,
		meta:      model.HashIndexMetadata{State: model.HashIndexEmpty},
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Populate runs the initial scan synchronously and marks the index ready.
// On failure the index stays not ready and Populate may be called again.
func (x *HashIndex) Populate(ctx context.Context) error {
	x.scanMu.Lock()
	defer x.scanMu.Unlock()

	if err := x.scan(ctx); err != nil {
		return goerr.Wrap(err, "failed to populate hash index")
	}
	x.ready.Store(true)
	return nil
}

// Refresh re-scans the directory. It does nothing before the index is ready
// or while another scan is running.
func (x *HashIndex) Refresh(ctx context.Context) error {
	logger := logging.From(ctx)

	if !x.ready.Load() {
		logger.Debug("hash index refresh skipped, index not populated yet")
		x.metrics.ObserveHashRefresh(metrics.RefreshSkipped)
		return nil
	}

	if !x.scanMu.TryLock() {
		logger.Info("hash index refresh skipped, another scan is running")
		x.metrics.ObserveHashRefresh(metrics.RefreshSkipped)
		return nil
	}
	defer x.scanMu.Unlock()

	if err := x.scan(ctx); err != nil {
		return goerr.Wrap(err, "failed to refresh hash index")
	}
	return nil
}

// scan must be called with scanMu held
func (x *HashIndex) scan(ctx context.Context) error {
	runID := uuid.NewString()
	startTime := time.Now()
	logger := logging.From(ctx).With("run_id", runID)

	x.updateMeta(func(m *model.HashIndexMetadata) {
		m.State = model.HashIndexPopulating
		m.LastRefreshAttempt = startTime
	})

	logger.Info("Starting hash index scan",
		"filter", x.filter,
		"page_size", x.pageSize)

	var scanned, pages int
	err := x.directory.ScanUsers(ctx, x.filter, x.pageSize, func(page []*model.User) error {
		pages++
		for _, user := range page {
			scanned++
			if user.UID == "" || user.Email == "" {
				continue
			}
			x.store.Put(model.EmailDigest(user.Email), user.UID)
		}
		logger.Debug("hash index page stored", "page", pages, "users", len(page))
		return nil
	})

	if err != nil {
		x.updateMeta(func(m *model.HashIndexMetadata) {
			if x.ready.Load() {
				m.State = model.HashIndexReady
			} else {
				m.State = model.HashIndexEmpty
			}
		})
		x.metrics.ObserveHashRefresh(metrics.RefreshFailure)
		return goerr.Wrap(err, "directory scan failed",
			goerr.V("run_id", runID),
			goerr.V("pages", pages),
			goerr.V("scanned", scanned))
	}

	entries := x.store.Len()
	x.updateMeta(func(m *model.HashIndexMetadata) {
		m.State = model.HashIndexReady
		m.LastRefreshSuccess = startTime
		m.EntryCount = entries
		m.ScannedUsers = scanned
	})
	x.metrics.SetHashIndexEntries(entries)
	x.metrics.ObserveHashRefresh(metrics.RefreshSuccess)

	logger.Info("Hash index scan completed",
		"pages", pages,
		"scanned", scanned,
		"entries", entries,
		"duration", time.Since(startTime).String())

	return nil
}

func (x *HashIndex) updateMeta(fn func(m *model.HashIndexMetadata)) {
	x.metaMu.Lock()
	defer x.metaMu.Unlock()
	fn(&x.meta)
}

// Lookup translates a digest (any case) to a uid. An unknown digest gives
// an empty uid and no error.
func (x *HashIndex) Lookup(digest string) (string, error) {
	if !x.ready.Load() {
		return "", goerr.Wrap(ErrHashIndexNotReady, "hash index lookup", goerr.V(DigestKey, digest))
	}

	uid, ok := x.store.Get(model.NormalizeDigest(digest))
	if !ok {
		return "", nil
	}
	return uid, nil
}

// Ready reports whether the initial scan has completed
func (x *HashIndex) Ready() bool {
	return x.ready.Load()
}

// Len returns the number of digests in the index
func (x *HashIndex) Len() int {
	return x.store.Len()
}

// Metadata returns a snapshot of the scan bookkeeping
func (x *HashIndex) Metadata() model.HashIndexMetadata {
	x.metaMu.RLock()
	defer x.metaMu.RUnlock()
	return x.meta
}
