// Package cache holds the last-known project record set with bounded
// staleness and de-duplicates concurrent remote fetches.
package cache

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sheetdash/sheetdash/internal/utils"
	"github.com/sheetdash/sheetdash/pkg/records"
	"github.com/sheetdash/sheetdash/pkg/sheets"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a snapshot is served without a remote call.
const DefaultTTL = 60 * time.Second

// SessionGate is the slice of the session manager the cache depends on.
type SessionGate interface {
	RequireClient(ctx context.Context) (*http.Client, error)
	Authenticated() bool
}

// Source identifies the remote range to read.
type Source struct {
	SpreadsheetID string
	SheetName     string
	Range         string
}

// Snapshot is the cached record set and its freshness timestamp.
type Snapshot struct {
	Records   []records.Project
	FetchedAt time.Time
}

// Cache implements get-or-fetch over the remote source. All fetches go
// through a single-flight group, so at most one remote read is in
// flight per cache instance and concurrent callers share its outcome.
type Cache struct {
	gate   SessionGate
	reader sheets.Reader
	src    Source
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu   sync.RWMutex
	snap *Snapshot
}

func New(gate SessionGate, reader sheets.Reader, src Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		gate:   gate,
		reader: reader,
		src:    src,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetOrFetch returns the cached records when the snapshot is fresh and
// force is false; otherwise it performs (or joins) a remote fetch. On
// fetch failure the previous snapshot is left untouched: stale data is
// preferable to none.
func (c *Cache) GetOrFetch(ctx context.Context, force bool) ([]records.Project, error) {
	if !force {
		if snap := c.freshSnapshot(); snap != nil {
			utils.Log.Debug("Serving project records from cache")
			return copyRecords(snap.Records), nil
		}
	}

	v, err, _ := c.group.Do("projects", func() (interface{}, error) {
		// Another caller may have refreshed while we waited for the guard.
		if !force {
			if snap := c.freshSnapshot(); snap != nil {
				return copyRecords(snap.Records), nil
			}
		}
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]records.Project), nil
}

func (c *Cache) fetch(ctx context.Context) ([]records.Project, error) {
	httpc, err := c.gate.RequireClient(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.reader.ReadRange(ctx, httpc, c.src.SpreadsheetID, c.src.SheetName, c.src.Range)
	if err != nil {
		return nil, fmt.Errorf("fetching project data: %w", err)
	}

	projects := records.Parse(rows)

	// A sign-out may have happened while the read was in flight; in that
	// case the result is discarded rather than committed.
	if !c.gate.Authenticated() {
		utils.Log.Debug("Discarding fetch result: session ended while in flight")
		return copyRecords(projects), nil
	}

	c.mu.Lock()
	c.snap = &Snapshot{Records: projects, FetchedAt: c.now()}
	c.mu.Unlock()

	utils.Log.Debug("Cached ", len(projects), " project records")
	return copyRecords(projects), nil
}

// Clear drops the snapshot outright so a later session never sees
// another session's rows. Used on sign-out.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Snapshot returns the current snapshot, fresh or stale, if one exists.
func (c *Cache) Snapshot() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return Snapshot{}, false
	}
	return Snapshot{Records: copyRecords(c.snap.Records), FetchedAt: c.snap.FetchedAt}, true
}

// freshSnapshot returns the snapshot only while its age is below the TTL.
func (c *Cache) freshSnapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil
	}
	if c.now().Sub(c.snap.FetchedAt) >= c.ttl {
		return nil
	}
	return c.snap
}

func copyRecords(in []records.Project) []records.Project {
	out := make([]records.Project, len(in))
	copy(out, in)
	return out
}
