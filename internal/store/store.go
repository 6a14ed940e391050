package store

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBatchExists is returned when creating a batch with a job id already in use.
var ErrBatchExists = errors.New("batch already exists")

// ErrBatchNotFound is returned when a batch id is unknown.
var ErrBatchNotFound = errors.New("batch not found")

// Store is the injectable batch/item registry. Implementations own all Batch
// and Item records; callers obtain items through the store and mutate them in
// place under the item lock.
type Store interface {
	// CreateBatch registers a new batch with all items pending.
	CreateBatch(jobID string, items []*Item) (*Batch, error)
	// GetBatch returns the live batch record.
	GetBatch(jobID string) (*Batch, bool)
	// GetItem returns the live item record within a batch.
	GetItem(jobID, itemID string) (*Item, bool)
	// SetBatchStatus transitions a batch's status.
	SetBatchStatus(jobID string, status BatchStatus) error
	// SnapshotBatch returns a consistent copy of a batch for read-only use.
	SnapshotBatch(jobID string) (Batch, error)
}

// MemoryStore is the in-memory Store implementation. Job state is ephemeral:
// nothing survives a process restart.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*Batch
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{batches: make(map[string]*Batch)}
}

// CreateBatch registers a new batch. Items are stored as given; the caller is
// responsible for having set them all to pending.
func (s *MemoryStore) CreateBatch(jobID string, items []*Item) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[jobID]; exists {
		return nil, fmt.Errorf("create batch %s: %w", jobID, ErrBatchExists)
	}

	b := &Batch{
		ID:        jobID,
		Items:     items,
		Status:    BatchPending,
		CreatedAt: time.Now().UTC(),
	}
	s.batches[jobID] = b

	return b, nil
}

// GetBatch returns the live batch record.
func (s *MemoryStore) GetBatch(jobID string) (*Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[jobID]
	return b, ok
}

// GetItem returns the live item record within a batch.
func (s *MemoryStore) GetItem(jobID, itemID string) (*Item, bool) {
	b, ok := s.GetBatch(jobID)
	if !ok {
		return nil, false
	}

	it := b.Item(itemID)
	return it, it != nil
}

// SetBatchStatus transitions a batch's status.
func (s *MemoryStore) SetBatchStatus(jobID string, status BatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[jobID]
	if !ok {
		return fmt.Errorf("set status of batch %s: %w", jobID, ErrBatchNotFound)
	}

	b.Status = status
	return nil
}

// SnapshotBatch returns a copy of the batch with item snapshots taken under
// each item's lock, safe to marshal while processing continues.
func (s *MemoryStore) SnapshotBatch(jobID string) (Batch, error) {
	s.mu.RLock()
	b, ok := s.batches[jobID]
	var status BatchStatus
	if ok {
		status = b.Status
	}
	s.mu.RUnlock()

	if !ok {
		return Batch{}, fmt.Errorf("snapshot batch %s: %w", jobID, ErrBatchNotFound)
	}

	items := make([]*Item, 0, len(b.Items))
	for _, it := range b.Items {
		it.Lock()
		snap := it.Snapshot()
		it.Unlock()
		items = append(items, &snap)
	}

	return Batch{
		ID:        b.ID,
		Items:     items,
		Status:    status,
		CreatedAt: b.CreatedAt,
	}, nil
}
