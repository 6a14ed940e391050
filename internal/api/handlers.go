// Package api implements the HTTP API for the backlink verification service.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/madx/backlinkd/internal/engine"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/rating"
	"github.com/madx/backlinkd/internal/scheduler"
	"github.com/madx/backlinkd/internal/sse"
	"github.com/madx/backlinkd/internal/store"
)

// BatchRunner processes batches and out-of-band recrawls.
type BatchRunner interface {
	Submit(jobID string) error
	Recrawl(req scheduler.RecrawlRequest)
}

// Checker runs a single synchronous backlink check.
type Checker interface {
	Check(ctx context.Context, claim store.Claim) engine.Outcome
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	store   store.Store
	runner  BatchRunner
	checker Checker
	rater   rating.Rater // nil disables enrichment on /check
	broker  sse.Broker
	log     logger.Logger
}

// NewHandler creates the HTTP handler set. checker should be backed by the
// short on-demand fetch timeout since the caller waits synchronously.
func NewHandler(
	st store.Store,
	runner BatchRunner,
	checker Checker,
	rater rating.Rater,
	broker sse.Broker,
	log logger.Logger,
) *Handler {
	return &Handler{
		store:   st,
		runner:  runner,
		checker: checker,
		rater:   rater,
		broker:  broker,
		log:     log,
	}
}

// Register attaches all routes to the router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", h.handleHealth)

	v1 := router.Group("/api/v1")
	v1.POST("/batches", h.handleSubmitBatch)
	v1.GET("/batches/:id", h.handleGetBatch)
	v1.GET("/batches/:id/events", h.handleBatchEvents)
	v1.POST("/batches/:id/recrawl", h.handleRecrawl)
	v1.POST("/check", h.handleCheck)
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"sse_clients": h.broker.ClientCount(),
	})
}

// handleSubmitBatch handles POST /api/v1/batches. The batch is accepted,
// stored with every item pending, and handed to the scheduler; progress is
// delivered via the batch's event stream.
func (h *Handler) handleSubmitBatch(c *gin.Context) {
	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	jobID := uuid.NewString()
	items := make([]*store.Item, len(req.Backlinks))
	for i, claim := range req.Backlinks {
		items[i] = &store.Item{
			ID:     uuid.NewString(),
			Claim:  claim.Claim(),
			Status: store.StatusPending,
		}
	}

	if _, err := h.store.CreateBatch(jobID, items); err != nil {
		h.log.Error("failed to create batch", logger.String("job_id", jobID), logger.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create batch"})
		return
	}

	if err := h.runner.Submit(jobID); err != nil {
		h.log.Error("failed to submit batch", logger.String("job_id", jobID), logger.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to start batch"})
		return
	}

	h.log.Info("batch accepted",
		logger.String("job_id", jobID),
		logger.Int("items", len(items)),
	)

	c.JSON(http.StatusCreated, SubmitBatchResponse{
		JobID:  jobID,
		Status: string(store.BatchPending),
		Items:  len(items),
	})
}

// handleGetBatch handles GET /api/v1/batches/:id. Late-joining observers use
// this for the batch's current state before following live events.
func (h *Handler) handleGetBatch(c *gin.Context) {
	jobID := c.Param("id")

	batch, err := h.store.SnapshotBatch(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "batch not found"})
		return
	}

	c.JSON(http.StatusOK, batch)
}

// handleBatchEvents handles GET /api/v1/batches/:id/events. Streams only the
// named batch's progress and completion events.
func (h *Handler) handleBatchEvents(c *gin.Context) {
	jobID := c.Param("id")
	sse.Handler(h.broker, h.log, sse.WithJobTopic(jobID))(c)
}

// handleRecrawl handles POST /api/v1/batches/:id/recrawl. The result arrives
// asynchronously on the batch's event stream, so lookup failures do not fail
// the request.
func (h *Handler) handleRecrawl(c *gin.Context) {
	var body RecrawlItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	req := scheduler.RecrawlRequest{JobID: c.Param("id")}
	req.Item.ID = body.Item.ID
	req.Item.Claim = store.Claim{
		URLFrom:    body.Item.URLFrom,
		URLTo:      body.Item.URLTo,
		AnchorText: body.Item.AnchorText,
	}

	h.runner.Recrawl(req)

	c.JSON(http.StatusAccepted, gin.H{"jobId": req.JobID, "itemId": body.Item.ID})
}

// handleCheck handles POST /api/v1/check: a single synchronous check that
// bypasses the store and scheduler entirely.
func (h *Handler) handleCheck(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	claim := req.Claim()
	outcome := h.checker.Check(c.Request.Context(), claim)

	resp := CheckResponse{
		URLFrom:      claim.URLFrom,
		URLTo:        claim.URLTo,
		AnchorText:   claim.AnchorText,
		Status:       outcome.Status,
		Found:        outcome.Found,
		StatusCode:   outcome.StatusCode,
		Error:        outcome.Error,
		MatchDetails: outcome.MatchDetails,
	}

	if h.rater != nil {
		domain := rating.CleanDomain(claim.URLFrom)
		if dr, err := h.rater.DomainRating(c.Request.Context(), domain); err != nil {
			msg := err.Error()
			resp.DomainRatingError = &msg
		} else {
			resp.DomainRating = &dr
		}
	}

	c.JSON(http.StatusOK, resp)
}
