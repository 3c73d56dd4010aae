package stats

import (
	"sync"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
)

type key struct {
	station string
	metric  domain.MetricKind
}

// entry bundles a window and its running statistics for one key.
type entry struct {
	window *RollingWindow
	stats  OnlineStats
	mu     sync.Mutex
}

// Store is the per-(station, metric) rolling store and online statistics
// registry. It is safe for concurrent use; per-entry mutation is
// serialized, but distinct keys never contend.
type Store struct {
	capacity  int
	retention time.Duration

	mu      sync.RWMutex
	entries map[key]*entry
}

// NewStore returns a Store whose windows use the given capacity and
// retention.
func NewStore(capacity int, retention time.Duration) *Store {
	return &Store{
		capacity:  capacity,
		retention: retention,
		entries:   make(map[key]*entry),
	}
}

func (s *Store) getOrCreate(station string, metric domain.MetricKind) *entry {
	k := key{station, metric}

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[k]; ok {
		return e
	}
	e = &entry{window: NewRollingWindow(s.capacity, s.retention)}
	s.entries[k] = e
	return e
}

// Write appends value at ts and updates the running statistics, returning a
// snapshot of the statistics after the update.
func (s *Store) Write(station string, metric domain.MetricKind, value float64, ts time.Time) OnlineStats {
	e := s.getOrCreate(station, metric)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.window.Append(Sample{Timestamp: ts, Value: value})
	e.stats.Update(value)
	return e.stats
}

// Stats returns a snapshot of the current online statistics for a key.
func (s *Store) Stats(station string, metric domain.MetricKind) OnlineStats {
	e := s.getOrCreate(station, metric)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Window returns the live samples for a key, oldest first.
func (s *Store) Window(station string, metric domain.MetricKind, now time.Time) []Sample {
	e := s.getOrCreate(station, metric)
	return e.window.Values(now)
}

// Count returns the number of live samples for a key.
func (s *Store) Count(station string, metric domain.MetricKind, now time.Time) int {
	e := s.getOrCreate(station, metric)
	return e.window.Len(now)
}
