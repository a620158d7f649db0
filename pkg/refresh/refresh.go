// Package refresh drives the periodic background refresh of the record
// cache while a session is active.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/sheetdash/sheetdash/pkg/faults"
	"github.com/sheetdash/sheetdash/pkg/records"
)

// DefaultInterval between scheduled refreshes.
const DefaultInterval = 60 * time.Second

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Session is the slice of the session manager the scheduler needs.
type Session interface {
	Authenticated() bool
	Invalidate(ctx context.Context)
}

// RecordCache is the slice of the cache the scheduler drives.
type RecordCache interface {
	GetOrFetch(ctx context.Context, force bool) ([]records.Project, error)
	Clear()
}

// Config holds everything a Scheduler needs.
type Config struct {
	Session  Session
	Cache    RecordCache
	Interval time.Duration               // defaults to DefaultInterval if <= 0
	Log      Logger                      // optional; nil = no logging
	OnUpdate func(recs []records.Project) // called after each successful refresh; nil = no callback
}

// Scheduler runs the periodic refresh loop. Scheduled ticks swallow
// reportable failures; session-fatal ones invalidate the session. The
// manual path propagates failures but shares the cache's single-flight
// guard, so a manual refresh and a concurrent tick never issue two
// remote calls.
type Scheduler struct {
	session  Session
	cache    RecordCache
	interval time.Duration
	log      Logger
	onUpdate func([]records.Project)

	mu        sync.Mutex
	lastClass faults.Class
	lastErr   error
}

func New(cfg Config) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Scheduler{
		session:  cfg.Session,
		cache:    cfg.Cache,
		interval: interval,
		log:      log,
		onUpdate: cfg.OnUpdate,
	}
}

// Run ticks immediately, then on every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Infof("Starting background refresh (interval: %s)", s.interval)

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debugf("Background refresh stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one scheduled refresh. A tick while unauthenticated is
// a no-op.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.session.Authenticated() {
		s.log.Debugf("Refresh tick skipped: not authenticated")
		return
	}

	recs, err := s.cache.GetOrFetch(ctx, true)
	if err != nil {
		f := faults.New("background refresh failed", err)
		s.recordFailure(f)
		if f.Class == faults.SessionFatal {
			s.log.Warnf("%s", f.Message)
			s.session.Invalidate(ctx)
			s.cache.Clear()
			return
		}
		// Transient: log and wait for the next tick.
		s.log.Warnf("Background refresh failed: %v", err)
		return
	}

	s.clearFailure()
	s.log.Debugf("Background refresh succeeded (%d records)", len(recs))
	if s.onUpdate != nil {
		s.onUpdate(recs)
	}
}

// RefreshNow is the manual refresh path: same fetch, same single-flight
// guard, but failures propagate to the caller for user-visible reporting.
func (s *Scheduler) RefreshNow(ctx context.Context) ([]records.Project, error) {
	recs, err := s.cache.GetOrFetch(ctx, true)
	if err != nil {
		f := faults.New("refresh failed", err)
		s.recordFailure(f)
		if f.Class == faults.SessionFatal {
			s.session.Invalidate(ctx)
			s.cache.Clear()
		}
		return nil, f
	}

	s.clearFailure()
	if s.onUpdate != nil {
		s.onUpdate(recs)
	}
	return recs, nil
}

// LastFailure reports the classification of the most recent failed
// refresh; err is nil when the last refresh succeeded.
func (s *Scheduler) LastFailure() (faults.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClass, s.lastErr
}

func (s *Scheduler) recordFailure(f *faults.Failure) {
	s.mu.Lock()
	s.lastClass = f.Class
	s.lastErr = f
	s.mu.Unlock()
}

func (s *Scheduler) clearFailure() {
	s.mu.Lock()
	s.lastClass = 0
	s.lastErr = nil
	s.mu.Unlock()
}
