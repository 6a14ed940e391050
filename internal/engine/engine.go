// Package engine composes fetching and link matching into the single "check
// one backlink claim" operation. Every call site (batch processing, on-demand
// checks, recrawls) routes through Check so classification is identical.
package engine

import (
	"context"

	"github.com/madx/backlinkd/internal/fetch"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/match"
	"github.com/madx/backlinkd/internal/store"
)

// PageFetcher retrieves a source page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Outcome is the classified result of checking one claim.
type Outcome struct {
	Status       store.ItemStatus `json:"status"`
	Found        bool             `json:"found"`
	StatusCode   *int             `json:"statusCode"`
	Error        *string          `json:"error"`
	MatchDetails *string          `json:"matchDetails"`
}

// Apply writes the outcome onto an item. Callers must hold the item lock.
func (o Outcome) Apply(it *store.Item) {
	it.Status = o.Status
	it.Found = o.Found
	it.StatusCode = o.StatusCode
	it.Error = o.Error
	it.MatchDetails = o.MatchDetails
}

// Engine checks backlink claims.
type Engine struct {
	fetcher PageFetcher
	log     logger.Logger
}

// New creates an Engine using the given fetcher.
func New(fetcher PageFetcher, log logger.Logger) *Engine {
	return &Engine{fetcher: fetcher, log: log}
}

// Check fetches claim.URLFrom and scans it for a link to claim.URLTo with
// text compatible with claim.AnchorText.
func (e *Engine) Check(ctx context.Context, claim store.Claim) Outcome {
	e.log.Debug("checking backlink",
		logger.String("url_from", claim.URLFrom),
		logger.String("url_to", claim.URLTo),
		logger.String("anchor_text", claim.AnchorText),
	)

	page, err := e.fetcher.Fetch(ctx, claim.URLFrom)
	if err != nil {
		return e.failedOutcome(claim, err)
	}

	m, err := match.FindMatch(page.Body, claim.URLFrom, claim.URLTo, claim.AnchorText)
	if err != nil {
		out := e.failedOutcome(claim, err)
		out.StatusCode = intPtr(page.StatusCode)
		return out
	}

	out := Outcome{
		Found:      m.Found,
		Status:     store.StatusNotFound,
		StatusCode: intPtr(page.StatusCode),
	}
	if m.Found {
		out.Status = store.StatusFound
		out.MatchDetails = strPtr(m.Details)
	}

	e.log.Debug("backlink check finished",
		logger.String("url_from", claim.URLFrom),
		logger.Bool("found", m.Found),
		logger.Int("status_code", page.StatusCode),
	)

	return out
}

// failedOutcome classifies a failure into a timeout or error outcome.
func (e *Engine) failedOutcome(claim store.Claim, err error) Outcome {
	status := store.StatusError
	if fetch.IsTimeout(err) {
		status = store.StatusTimeout
	}

	out := Outcome{
		Status: status,
		Error:  strPtr(err.Error()),
	}
	if code := fetch.StatusCodeOf(err); code > 0 {
		out.StatusCode = intPtr(code)
	}

	e.log.Debug("backlink check failed",
		logger.String("url_from", claim.URLFrom),
		logger.String("status", string(status)),
		logger.Error(err),
	)

	return out
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
