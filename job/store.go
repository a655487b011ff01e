package job

import (
	"sync"
	"time"
)

// Store holds job records by id. The interface exists so an implementation
// can choose its own eviction policy without touching strategy logic.
type Store interface {
	Put(j *Job)
	Get(id string) (*Job, bool)
	Delete(id string)
}

// MemoryStoreConfig configures the in-memory store's eviction of terminal
// jobs.
type MemoryStoreConfig struct {
	// TTL evicts terminal jobs this long after they finish. Zero disables
	// eviction entirely.
	TTL time.Duration

	// CleanupInterval is how often the sweeper runs (default: 1 minute when
	// TTL is set).
	CleanupInterval time.Duration
}

// MemoryStore is an in-memory job table with optional TTL eviction of
// terminal jobs. Pending and processing jobs are never evicted.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

// NewMemoryStore creates a memory store, starting a background sweeper when
// a TTL is configured.
func NewMemoryStore(cfg MemoryStoreConfig) *MemoryStore {
	s := &MemoryStore{
		jobs: make(map[string]*Job),
		ttl:  cfg.TTL,
		stop: make(chan struct{}),
	}
	if cfg.TTL > 0 {
		interval := cfg.CleanupInterval
		if interval <= 0 {
			interval = time.Minute
		}
		go s.sweep(interval)
	}
	return s
}

func (s *MemoryStore) Put(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID()] = j
}

func (s *MemoryStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

func (s *MemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if !j.Terminal() {
			continue
		}
		if finished := j.FinishedAt(); !finished.IsZero() && now.Sub(finished) >= s.ttl {
			delete(s.jobs, id)
		}
	}
}
