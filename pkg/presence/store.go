package presence

import (
	"sort"
	"sync"
)

// Store is an in-memory keyed map of participant records with change
// notification. Writes are whole-record upserts scoped to one key, so there
// is no write-write contention; readers observe eventual consistency, which
// is acceptable at the aggregator's 1 Hz resolution.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record

	subs    map[int]func([]Record)
	nextSub int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]Record),
		subs:    make(map[int]func([]Record)),
	}
}

// Upsert writes a participant's full record and notifies subscribers.
func (s *Store) Upsert(key string, rec Record) {
	rec.Key = key

	s.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()

	s.notify()
}

// Remove deletes a participant's record and notifies subscribers.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	_, existed := s.records[key]
	delete(s.records, key)
	s.mu.Unlock()

	if existed {
		s.notify()
	}
}

// RemoveOnDisconnect registers disconnect cleanup for key and returns the
// trigger the transport invokes when the owning connection drops. Mirrors
// Firebase's onDisconnect().remove(): register once at join time, never
// rely on manual cleanup.
func (s *Store) RemoveOnDisconnect(key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { s.Remove(key) })
	}
}

// SubscribeAll registers a callback that receives the full record list on
// every change, starting with the current snapshot. Returns an unsubscribe
// function.
func (s *Store) SubscribeAll(cb func([]Record)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = cb
	s.mu.Unlock()

	cb(s.Snapshot())

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// ResetAll resets the monitored fields of the given keys (or every record
// when keys is nil) back to defaults. One notification for the whole batch.
func (s *Store) ResetAll(keys []string) {
	s.mu.Lock()
	if keys == nil {
		for k := range s.records {
			keys = append(keys, k)
		}
	}
	changed := false
	for _, k := range keys {
		if rec, ok := s.records[k]; ok {
			s.records[k] = rec.ResetDefaults()
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Snapshot returns all records ordered by key.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of participant records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// notify pushes the current snapshot to every subscriber. Called without
// the lock held so callbacks may touch the store.
func (s *Store) notify() {
	snapshot := s.Snapshot()

	s.mu.RLock()
	cbs := make([]func([]Record), 0, len(s.subs))
	for _, cb := range s.subs {
		cbs = append(cbs, cb)
	}
	s.mu.RUnlock()

	for _, cb := range cbs {
		cb(snapshot)
	}
}
