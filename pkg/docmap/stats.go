package docmap

import "sync/atomic"

// Stats tracks cumulative counters for one Connection: model-cache traffic
// and connection attempts. All methods are safe for concurrent use.
type Stats struct {
	hits            atomic.Int64
	misses          atomic.Int64
	writes          atomic.Int64
	invalidations   atomic.Int64
	connectAttempts atomic.Int64
	connectFailures atomic.Int64
}

// Hits returns the number of model-cache reads answered from the cache.
func (s *Stats) Hits() int64 { return s.hits.Load() }

// Misses returns the number of model-cache reads not answered from the cache.
func (s *Stats) Misses() int64 { return s.misses.Load() }

// Writes returns the number of documents written to the cache.
func (s *Stats) Writes() int64 { return s.writes.Load() }

// Invalidations returns the number of cache entries cleared.
func (s *Stats) Invalidations() int64 { return s.invalidations.Load() }

// ConnectAttempts returns the number of underlying connect operations issued.
func (s *Stats) ConnectAttempts() int64 { return s.connectAttempts.Load() }

// ConnectFailures returns the number of failed connect operations.
func (s *Stats) ConnectFailures() int64 { return s.connectFailures.Load() }

// HitRate returns the cache hit percentage, or 0 with no reads yet.
func (s *Stats) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func (s *Stats) incHits()            { s.hits.Add(1) }
func (s *Stats) incMisses()          { s.misses.Add(1) }
func (s *Stats) incWrites()          { s.writes.Add(1) }
func (s *Stats) incInvalidations()   { s.invalidations.Add(1) }
func (s *Stats) incConnectAttempts() { s.connectAttempts.Add(1) }
func (s *Stats) incConnectFailures() { s.connectFailures.Add(1) }
