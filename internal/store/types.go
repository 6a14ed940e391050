// Package store holds batches of backlink claims and their per-item
// processing state in memory. It is the single source of truth mutated by the
// scheduler and by recrawl requests.
package store

import (
	"sync"
	"time"
)

// ItemStatus is the processing state of a single backlink claim.
type ItemStatus string

const (
	StatusPending  ItemStatus = "pending"
	StatusChecking ItemStatus = "checking"
	StatusFound    ItemStatus = "found"
	StatusNotFound ItemStatus = "not-found"
	StatusError    ItemStatus = "error"
	StatusTimeout  ItemStatus = "timeout"
)

// Terminal reports whether the status is final.
func (s ItemStatus) Terminal() bool {
	switch s {
	case StatusFound, StatusNotFound, StatusError, StatusTimeout:
		return true
	default:
		return false
	}
}

// BatchStatus is the processing state of a whole batch.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
)

// Claim is a caller-supplied assertion that URLFrom links to URLTo, optionally
// with AnchorText. Claims are never mutated.
type Claim struct {
	URLFrom    string `json:"urlFrom"`
	URLTo      string `json:"urlTo"`
	AnchorText string `json:"anchorText"`
}

// Item is one claim's mutable processing record within a batch.
//
// The scheduler's sequential pass and any number of recrawl tasks write to the
// same Item. Writers must hold the item lock across the whole
// read-modify-write-publish sequence so concurrent writes serialize.
type Item struct {
	mu sync.Mutex

	ID string `json:"id"`
	Claim

	Status       ItemStatus `json:"status"`
	Found        bool       `json:"found"`
	StatusCode   *int       `json:"statusCode"`
	Error        *string    `json:"error"`
	MatchDetails *string    `json:"matchDetails"`

	// Domain-rating enrichment, orthogonal to crawl status.
	DomainRating      *int    `json:"domainRating"`
	DomainRatingError *string `json:"domainRatingError"`
}

// Lock acquires the item's write lock.
func (i *Item) Lock() { i.mu.Lock() }

// Unlock releases the item's write lock.
func (i *Item) Unlock() { i.mu.Unlock() }

// Snapshot returns a copy of the item's current state, safe to marshal and
// publish after the lock is released. Callers must hold the item lock.
func (i *Item) Snapshot() Item {
	return Item{
		ID:                i.ID,
		Claim:             i.Claim,
		Status:            i.Status,
		Found:             i.Found,
		StatusCode:        i.StatusCode,
		Error:             i.Error,
		MatchDetails:      i.MatchDetails,
		DomainRating:      i.DomainRating,
		DomainRatingError: i.DomainRatingError,
	}
}

// Batch is a submitted group of claims processed together under one job id.
// Item order is the processing order. Batches are never deleted; late-joining
// observers and recrawl requests may reference them for the process lifetime.
type Batch struct {
	ID        string      `json:"jobId"`
	Items     []*Item     `json:"items"`
	Status    BatchStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Item returns the item with the given id, or nil.
func (b *Batch) Item(itemID string) *Item {
	for _, it := range b.Items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}
