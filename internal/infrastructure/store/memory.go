// Package store provides JobStore implementations: an in-process TTL map
// for single-node deployments and a Redis-backed store for shared ones.
package store

import (
	"context"
	"sync"
	"time"

	"TubeScribe/internal/domain"
	"TubeScribe/internal/ports"
)

type memoryEntry struct {
	job       domain.Job
	expiresAt time.Time
}

// MemoryStore keeps job records in a mutex-guarded map. Every write
// refreshes the record's retention timer; expired records behave exactly
// like records that never existed.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]memoryEntry
	retention time.Duration

	now  func() time.Time
	stop chan struct{}
}

var _ ports.JobStore = (*MemoryStore)(nil)

// NewMemoryStore builds a store with the given retention window and
// starts a background sweep for expired records.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = time.Hour
	}

	s := &MemoryStore{
		jobs:      make(map[string]memoryEntry),
		retention: retention,
		now:       time.Now,
		stop:      make(chan struct{}),
	}

	go s.sweep()
	return s
}

// Close stops the background sweep.
func (s *MemoryStore) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// Create persists a new job record.
func (s *MemoryStore) Create(_ context.Context, job domain.Job) error {
	s.put(job)
	return nil
}

// Update replaces the whole record and refreshes its retention timer.
func (s *MemoryStore) Update(_ context.Context, job domain.Job) error {
	s.put(job)
	return nil
}

// Get returns the current snapshot or domain.ErrNotFound for unknown and
// expired ids.
func (s *MemoryStore) Get(_ context.Context, id string) (domain.Job, error) {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return domain.Job{}, domain.ErrNotFound
	}
	return entry.job, nil
}

func (s *MemoryStore) put(job domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = memoryEntry{job: job, expiresAt: s.now().Add(s.retention)}
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) evictExpired() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.jobs {
		if now.After(entry.expiresAt) {
			delete(s.jobs, id)
		}
	}
}
