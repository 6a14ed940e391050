package api

import "github.com/madx/backlinkd/internal/store"

// ClaimRequest is one backlink claim as submitted by a caller.
type ClaimRequest struct {
	URLFrom    string `json:"urlFrom" binding:"required"`
	URLTo      string `json:"urlTo" binding:"required"`
	AnchorText string `json:"anchorText"`
}

// Claim converts the request into a store claim.
func (r ClaimRequest) Claim() store.Claim {
	return store.Claim{
		URLFrom:    r.URLFrom,
		URLTo:      r.URLTo,
		AnchorText: r.AnchorText,
	}
}

// SubmitBatchRequest is the body of POST /api/v1/batches.
type SubmitBatchRequest struct {
	Backlinks []ClaimRequest `json:"backlinks" binding:"required,min=1,dive"`
}

// SubmitBatchResponse acknowledges an accepted batch.
type SubmitBatchResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Items  int    `json:"items"`
}

// RecrawlItemRequest is the body of POST /api/v1/batches/:id/recrawl. The
// claim fields echo what the caller is displaying so lookup failures can be
// reported as a renderable row.
type RecrawlItemRequest struct {
	Item struct {
		ID         string `json:"id" binding:"required"`
		URLFrom    string `json:"urlFrom"`
		URLTo      string `json:"urlTo"`
		AnchorText string `json:"anchorText"`
	} `json:"item" binding:"required"`
}

// CheckResponse is the synchronous result of POST /api/v1/check.
type CheckResponse struct {
	URLFrom    string `json:"urlFrom"`
	URLTo      string `json:"urlTo"`
	AnchorText string `json:"anchorText"`

	Status       store.ItemStatus `json:"status"`
	Found        bool             `json:"found"`
	StatusCode   *int             `json:"statusCode"`
	Error        *string          `json:"error"`
	MatchDetails *string          `json:"matchDetails"`

	DomainRating      *int    `json:"domainRating"`
	DomainRatingError *string `json:"domainRatingError"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
