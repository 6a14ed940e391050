// Package scheduler drains submitted batches, checking each batch's items one
// at a time with inter-item pacing. Batches run concurrently with each other;
// within a batch there is no parallelism, keeping the per-site request rate
// low and deterministic.
package scheduler

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/madx/backlinkd/internal/engine"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/rating"
	"github.com/madx/backlinkd/internal/sse"
	"github.com/madx/backlinkd/internal/store"
)

// DefaultPacingInterval is the delay between consecutive items of one batch.
const DefaultPacingInterval = time.Second

// Checker runs a single backlink check.
type Checker interface {
	Check(ctx context.Context, claim store.Claim) engine.Outcome
}

// Config holds scheduler configuration.
type Config struct {
	// PacingInterval is the delay between consecutive items of a batch.
	PacingInterval time.Duration `mapstructure:"pacing_interval"`
}

// SetDefaults fills in zero values.
func (c *Config) SetDefaults() {
	if c.PacingInterval <= 0 {
		c.PacingInterval = DefaultPacingInterval
	}
}

// Scheduler processes submitted batches and out-of-band recrawls.
type Scheduler struct {
	store   store.Store
	checker Checker
	bus     sse.Publisher
	rater   rating.Rater // nil disables enrichment
	log     logger.Logger

	pacing time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. rater may be nil when domain-rating enrichment is
// not configured.
func New(st store.Store, checker Checker, bus sse.Publisher, rater rating.Rater, cfg Config, log logger.Logger) *Scheduler {
	cfg.SetDefaults()

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:   st,
		checker: checker,
		bus:     bus,
		rater:   rater,
		log:     log,
		pacing:  cfg.PacingInterval,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit starts processing a batch in the background. The batch must already
// exist in the store.
func (s *Scheduler) Submit(jobID string) error {
	batch, ok := s.store.GetBatch(jobID)
	if !ok {
		return fmt.Errorf("submit batch %s: %w", jobID, store.ErrBatchNotFound)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.processBatch(batch)
	}()

	return nil
}

// Stop cancels in-flight work and waits for running tasks to finish their
// current item.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// processBatch runs every item of the batch in order, then marks it completed.
func (s *Scheduler) processBatch(batch *store.Batch) {
	total := len(batch.Items)

	s.log.Info("batch processing started",
		logger.String("job_id", batch.ID),
		logger.Int("items", total),
	)

	if err := s.store.SetBatchStatus(batch.ID, store.BatchProcessing); err != nil {
		s.log.Error("failed to mark batch processing", logger.String("job_id", batch.ID), logger.Error(err))
		return
	}

	// One token per pacing interval; the first item passes immediately, each
	// following item waits out the interval, and nothing waits after the last.
	limiter := rate.NewLimiter(rate.Every(s.pacing), 1)

	for i, item := range batch.Items {
		if err := limiter.Wait(s.ctx); err != nil {
			s.log.Warn("batch processing interrupted",
				logger.String("job_id", batch.ID),
				logger.Int("completed", i),
			)
			return
		}

		s.processItem(batch.ID, item, i, total)
	}

	if err := s.store.SetBatchStatus(batch.ID, store.BatchCompleted); err != nil {
		s.log.Error("failed to mark batch completed", logger.String("job_id", batch.ID), logger.Error(err))
		return
	}

	s.publish(sse.NewCompleteEvent(batch.ID))

	s.log.Info("batch processing completed",
		logger.String("job_id", batch.ID),
		logger.Int("items", total),
	)
}

// processItem checks one item. The item lock is held across the whole
// read-modify-write-publish sequence so a concurrent recrawl of the same item
// serializes instead of interleaving.
func (s *Scheduler) processItem(jobID string, item *store.Item, index, total int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic while processing item",
				logger.String("job_id", jobID),
				logger.String("item_id", item.ID),
				logger.Any("panic", r),
			)
			s.failItem(jobID, item, fmt.Sprintf("internal error: %v", r))
		}
	}()

	item.Lock()
	defer item.Unlock()

	item.Status = store.StatusChecking
	s.publish(sse.NewProgressEvent(jobID, intPtr(percent(index, total)), item.Snapshot()))

	outcome := s.checker.Check(s.ctx, item.Claim)
	outcome.Apply(item)
	s.enrich(item)

	s.publish(sse.NewProgressEvent(jobID, intPtr(percent(index+1, total)), item.Snapshot()))
}

// failItem records a processing failure on an item and publishes it. The item
// lock has already been released during panic unwinding, so it re-acquires it.
func (s *Scheduler) failItem(jobID string, item *store.Item, msg string) {
	item.Lock()
	defer item.Unlock()

	item.Status = store.StatusError
	item.Found = false
	item.Error = &msg

	s.publish(sse.NewProgressEvent(jobID, nil, item.Snapshot()))
}

// enrich attaches the domain rating for the item's source URL. Failures are
// recorded on the item and never change its crawl status. Callers must hold
// the item lock.
func (s *Scheduler) enrich(item *store.Item) {
	if s.rater == nil {
		return
	}

	domain := rating.CleanDomain(item.URLFrom)

	dr, err := s.rater.DomainRating(s.ctx, domain)
	if err != nil {
		msg := err.Error()
		item.DomainRating = nil
		item.DomainRatingError = &msg

		s.log.Debug("domain rating lookup failed",
			logger.String("domain", domain),
			logger.Error(err),
		)
		return
	}

	item.DomainRating = &dr
	item.DomainRatingError = nil
}

// publish pushes an event to the bus, logging instead of failing when the
// bus cannot accept it.
func (s *Scheduler) publish(event sse.Event) {
	if err := s.bus.Publish(s.ctx, event); err != nil {
		s.log.Warn("progress event dropped",
			logger.String("job_id", event.JobID),
			logger.String("event_type", event.Type),
			logger.Error(err),
		)
	}
}

// percent converts a completed count to a rounded integer percentage.
func percent(completed, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func intPtr(v int) *int {
	return &v
}
