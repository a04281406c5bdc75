package storage

import (
	"sync"
	"time"

	"callops-api/internal/models"
)

// MemoryStore holds the canonical call collection for the life of the
// process. Collections are swapped wholesale on ingest and copied on read,
// so callers can treat what they get as immutable.
//
// Overlapping ingests resolve last-write-wins: each load reserves an id up
// front and a completion is dropped when a newer load has been reserved
// since, keeping the previously loaded collection visible instead.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []models.CallRecord
	upstream   models.UpstreamCounts
	lastIngest time.Time
	issued     uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make([]models.CallRecord, 0),
	}
}

// BeginLoad reserves the next load id. Call before starting the upstream
// fetch so a slow fetch can be superseded by a later one.
func (s *MemoryStore) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// CompleteLoad installs the collection fetched under the given load id.
// Returns false when the result is stale, in which case nothing changes.
func (s *MemoryStore) CompleteLoad(id uint64, records []models.CallRecord, upstream models.UpstreamCounts) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.issued {
		return false
	}
	s.records = records
	s.upstream = upstream
	s.lastIngest = time.Now()
	return true
}

func (s *MemoryStore) GetRecords() []models.CallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.CallRecord, len(s.records))
	copy(records, s.records)
	return records
}

func (s *MemoryStore) GetUpstreamCounts() models.UpstreamCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upstream
}

func (s *MemoryStore) GetLastIngestTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastIngest
}

func (s *MemoryStore) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.lastIngest.IsZero()
}
