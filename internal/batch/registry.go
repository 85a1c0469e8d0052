package batch

import (
	"errors"
	"sync"
)

var (
	// ErrBatchNotFound means no batch with the given ID is registered.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrBatchRunning means the operation requires a finished batch.
	ErrBatchRunning = errors.New("batch is still running")
)

// Registry holds batch records behind a single mutex. All reads return
// copies; the lock is never held across I/O or inference. Finished records
// beyond maxHistory are evicted oldest first; in-flight batches are never
// evicted.
type Registry struct {
	mu         sync.Mutex
	records    map[string]*Record
	order      []string
	maxHistory int
}

// NewRegistry creates a registry retaining at most maxHistory finished
// batches.
func NewRegistry(maxHistory int) *Registry {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &Registry{
		records:    make(map[string]*Record),
		maxHistory: maxHistory,
	}
}

// Insert registers a new record and prunes old finished history.
func (r *Registry) Insert(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := rec.clone()
	r.records[rec.BatchID] = &clone
	r.order = append(r.order, rec.BatchID)
	r.pruneLocked()
}

// pruneLocked evicts the oldest finished records past the history cap.
// Caller holds the lock.
func (r *Registry) pruneLocked() {
	finished := 0
	for _, rec := range r.records {
		if rec.Finished() {
			finished++
		}
	}

	for i := 0; finished > r.maxHistory && i < len(r.order); i++ {
		id := r.order[i]
		rec, ok := r.records[id]
		if !ok || !rec.Finished() {
			continue
		}
		delete(r.records, id)
		finished--
	}

	// Compact the order slice to surviving IDs.
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.records[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order = kept
}

// Get returns a snapshot copy of a record.
func (r *Registry) Get(batchID string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[batchID]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Snapshot returns copies of all records keyed by batch ID.
func (r *Registry) Snapshot() map[string]Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Record, len(r.records))
	for id, rec := range r.records {
		out[id] = rec.clone()
	}
	return out
}

// Update applies fn to a record under the lock. fn must be fast and must not
// perform I/O.
func (r *Registry) Update(batchID string, fn func(*Record)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[batchID]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Delete removes a finished record. Deleting a running batch is refused.
func (r *Registry) Delete(batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[batchID]
	if !ok {
		return ErrBatchNotFound
	}
	if !rec.Finished() {
		return ErrBatchRunning
	}
	delete(r.records, batchID)

	kept := r.order[:0]
	for _, id := range r.order {
		if id != batchID {
			kept = append(kept, id)
		}
	}
	r.order = kept
	return nil
}
