package cache

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sheetdash/sheetdash/pkg/auth"
	"github.com/stretchr/testify/require"
)

type fakeGate struct {
	mu            sync.Mutex
	authenticated bool
}

func (g *fakeGate) RequireClient(ctx context.Context) (*http.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.authenticated {
		return nil, auth.ErrNotAuthenticated
	}
	return http.DefaultClient, nil
}

func (g *fakeGate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

func (g *fakeGate) set(v bool) {
	g.mu.Lock()
	g.authenticated = v
	g.mu.Unlock()
}

type fakeReader struct {
	calls   atomic.Int64
	rows    [][]string
	err     error
	entered chan struct{} // closed-once signal that a read started
	release chan struct{} // blocks the read until closed, when non-nil
}

func (r *fakeReader) ReadRange(ctx context.Context, httpc *http.Client, id, sheet, rng string) ([][]string, error) {
	if r.calls.Add(1) == 1 && r.entered != nil {
		close(r.entered)
	}
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

var testRows = [][]string{
	{"Name", "Mgr", "Date", "Budget", "Link", "Progress", "Notes"},
	{"Alpha", "Bob", "2024-01-01", "1000", "http://x", "45%", "ok"},
	{"Beta", "Eve", "2024-02-01", "2000", "http://y", "90%", ""},
}

func newTestCache(reader *fakeReader) (*Cache, *fakeGate, *time.Time) {
	gate := &fakeGate{authenticated: true}
	c := New(gate, reader, Source{SpreadsheetID: "sid", SheetName: "Sheet1", Range: "A1:G100"}, time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	c.now = func() time.Time { return *clock }
	return c, gate, clock
}

func TestGetOrFetchFreshness(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{rows: testRows}
	c, _, clock := newTestCache(reader)

	first, err := c.GetOrFetch(ctx, false)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Within the TTL the snapshot is served without a remote call.
	*clock = clock.Add(30 * time.Second)
	second, err := c.GetOrFetch(ctx, false)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, reader.calls.Load())

	// Past the TTL a new fetch happens.
	*clock = clock.Add(31 * time.Second)
	_, err = c.GetOrFetch(ctx, false)
	require.NoError(t, err)
	require.EqualValues(t, 2, reader.calls.Load())
}

func TestGetOrFetchForceBypassesFreshness(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{rows: testRows}
	c, _, _ := newTestCache(reader)

	_, err := c.GetOrFetch(ctx, false)
	require.NoError(t, err)
	_, err = c.GetOrFetch(ctx, true)
	require.NoError(t, err)
	require.EqualValues(t, 2, reader.calls.Load())
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{
		rows:    testRows,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, _, _ := newTestCache(reader)

	type result struct {
		n   int
		err error
	}
	results := make(chan result, 2)
	fetch := func() {
		recs, err := c.GetOrFetch(ctx, true)
		results <- result{n: len(recs), err: err}
	}

	go fetch()
	<-reader.entered
	// Second caller arrives while the first fetch is in flight.
	go fetch()
	time.Sleep(50 * time.Millisecond)
	close(reader.release)

	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		require.Equal(t, 2, r.n)
	}
	require.EqualValues(t, 1, reader.calls.Load(), "both callers must share one remote call")
}

func TestGetOrFetchFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{rows: testRows}
	c, _, clock := newTestCache(reader)

	_, err := c.GetOrFetch(ctx, false)
	require.NoError(t, err)

	reader.err = errors.New("upstream exploded")
	*clock = clock.Add(2 * time.Minute)

	_, err = c.GetOrFetch(ctx, false)
	require.Error(t, err)

	// The stale snapshot survives the failed refresh.
	snap, ok := c.Snapshot()
	require.True(t, ok)
	require.Len(t, snap.Records, 2)
}

func TestGetOrFetchUnauthenticatedFailsFast(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{rows: testRows}
	c, gate, _ := newTestCache(reader)
	gate.set(false)

	_, err := c.GetOrFetch(ctx, false)
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)
	require.EqualValues(t, 0, reader.calls.Load())
}

func TestSignOutDuringFlightDiscardsSnapshot(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{
		rows:    testRows,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, gate, _ := newTestCache(reader)

	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, true)
		done <- err
	}()

	<-reader.entered
	gate.set(false)
	c.Clear()
	close(reader.release)

	require.NoError(t, <-done)

	// The completed fetch must not be committed after sign-out.
	_, ok := c.Snapshot()
	require.False(t, ok)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{rows: testRows}
	c, _, _ := newTestCache(reader)

	_, err := c.GetOrFetch(ctx, false)
	require.NoError(t, err)
	_, ok := c.Snapshot()
	require.True(t, ok)

	c.Clear()
	_, ok = c.Snapshot()
	require.False(t, ok)

	// The next read fetches again instead of serving cleared data.
	_, err = c.GetOrFetch(ctx, false)
	require.NoError(t, err)
	require.EqualValues(t, 2, reader.calls.Load())
}
