package sync_engine

import (
	"sync"
	"time"

	"github.com/officeforge/vbasync/vba_project/models"
)

// RecordStore tracks the on-disk counterpart of every synced component: the
// path we last wrote or read, its content hash and its modification time.
// Records are the engine's memory of which side changed between watch
// cycles. They are mutated only by the engine, immediately after a
// successful read or write, never speculatively.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]*models.FileRecord
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]*models.FileRecord)}
}

// Get returns the record for a component, if any.
func (s *RecordStore) Get(component string) (*models.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[component]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// Set stores the record for a component.
func (s *RecordStore) Set(component string, path string, hash string, modTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[component] = &models.FileRecord{Path: path, Hash: hash, ModTime: modTime}
}

// Delete removes the record for a component.
func (s *RecordStore) Delete(component string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, component)
}

// Components returns the names of all recorded components.
func (s *RecordStore) Components() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	return names
}

// All returns a copy of every record keyed by component name, for
// persistence into the metadata file.
func (s *RecordStore) All() map[string]models.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.FileRecord, len(s.records))
	for name, r := range s.records {
		out[name] = *r
	}
	return out
}

// ComponentForPath finds the component whose record points at path.
func (s *RecordStore) ComponentForPath(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, r := range s.records {
		if r.Path == path {
			return name, true
		}
	}
	return "", false
}
