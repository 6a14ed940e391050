package scheduler

import (
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/sse"
	"github.com/madx/backlinkd/internal/store"
)

// RecrawlRequest names one item of an existing batch to re-check. The claim
// fields echo what the observer is displaying; they are used to render a
// synthetic error item when the batch or item cannot be found.
type RecrawlRequest struct {
	JobID string `json:"jobId"`
	Item  struct {
		ID string `json:"id"`
		store.Claim
	} `json:"item"`
}

// Recrawl re-checks a single item out of band, independent of the scheduler's
// current position in the batch. The result is delivered via the progress bus
// with a nil progress so observers do not mistake it for batch progress.
// Lookup failures are reported the same way, as a synthetic error item, and
// never alter the store.
func (s *Scheduler) Recrawl(req RecrawlRequest) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.recrawl(req)
	}()
}

func (s *Scheduler) recrawl(req RecrawlRequest) {
	log := s.log.With(
		logger.String("job_id", req.JobID),
		logger.String("item_id", req.Item.ID),
	)

	batch, ok := s.store.GetBatch(req.JobID)
	if !ok {
		log.Warn("recrawl requested for unknown batch")
		s.publishSynthetic(req, "batch not found")
		return
	}

	item := batch.Item(req.Item.ID)
	if item == nil {
		log.Warn("recrawl requested for unknown item")
		s.publishSynthetic(req, "item not found")
		return
	}

	log.Info("recrawl started")

	item.Lock()
	defer item.Unlock()

	item.Status = store.StatusChecking
	item.Found = false
	item.StatusCode = nil
	item.Error = nil
	item.MatchDetails = nil
	s.publish(sse.NewProgressEvent(req.JobID, nil, item.Snapshot()))

	outcome := s.checker.Check(s.ctx, item.Claim)
	outcome.Apply(item)
	s.enrich(item)

	s.publish(sse.NewProgressEvent(req.JobID, nil, item.Snapshot()))

	log.Info("recrawl finished", logger.String("status", string(item.Status)))
}

// publishSynthetic reports a lookup failure as an error item carrying the
// caller-supplied claim fields so the observer can still render a row.
func (s *Scheduler) publishSynthetic(req RecrawlRequest, msg string) {
	item := store.Item{
		ID:     req.Item.ID,
		Claim:  req.Item.Claim,
		Status: store.StatusError,
		Error:  &msg,
	}
	s.publish(sse.NewProgressEvent(req.JobID, nil, item))
}
