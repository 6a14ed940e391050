// Package sse provides Server-Sent Events distribution of batch progress.
// Delivery is at-most-once and best-effort: observers connected at publish
// time receive the event, late joiners receive nothing retroactively.
package sse

import (
	"context"

	"github.com/madx/backlinkd/internal/store"
)

// Event is a Server-Sent Event scoped to one batch topic.
// Wire format: event: <Type>\ndata: <JSON of Data>\n\n
type Event struct {
	// Type is the event type ("progress", "complete").
	Type string `json:"type"`
	// JobID is the batch topic this event belongs to.
	JobID string `json:"jobId"`
	// Data is the JSON payload.
	Data any `json:"data"`
}

// Publisher sends events to the broker.
type Publisher interface {
	// Publish sends an event to all subscribers of its batch topic.
	// Returns an error if the publish buffer is full.
	Publish(ctx context.Context, event Event) error
}

// Subscriber receives events from the broker.
type Subscriber interface {
	// Subscribe returns a channel that receives events. The channel is closed
	// when the subscription ends (client disconnect or broker shutdown).
	Subscribe(ctx context.Context, opts ...ClientOption) (<-chan Event, func())
}

// Broker manages SSE connections and event distribution.
type Broker interface {
	Publisher
	Subscriber
	// Start begins processing events (non-blocking).
	Start(ctx context.Context) error
	// Stop gracefully shuts down the broker.
	Stop() error
	// ClientCount returns the number of connected clients.
	ClientCount() int
}

// EventFilter determines if an event should be sent to a client.
type EventFilter func(event Event) bool

// ClientOptions configures a single SSE client connection.
type ClientOptions struct {
	// Filter is an optional event filter for this client.
	Filter EventFilter
	// BufferSize is the event buffer size (default: 100).
	BufferSize int
}

// Event types pushed to observers.
const (
	EventTypeProgress = "progress"
	EventTypeComplete = "complete"
)

// Internal event types.
const (
	eventTypeConnected = "connected"
)

// ProgressData is the payload for progress events. Progress is nil for
// out-of-band single-item updates (recrawls); observers must not treat such
// events as part of the monotonic batch percentage sequence.
type ProgressData struct {
	JobID    string     `json:"jobId"`
	Progress *int       `json:"progress"`
	Item     store.Item `json:"item"`
}

// CompleteData is the payload for complete events.
type CompleteData struct {
	JobID    string `json:"jobId"`
	Progress int    `json:"progress"`
}

// NewProgressEvent creates a progress event for a batch topic. Pass a nil
// progress for out-of-band updates.
func NewProgressEvent(jobID string, progress *int, item store.Item) Event {
	return Event{
		Type:  EventTypeProgress,
		JobID: jobID,
		Data:  ProgressData{JobID: jobID, Progress: progress, Item: item},
	}
}

// NewCompleteEvent creates a batch completion event.
func NewCompleteEvent(jobID string) Event {
	return Event{
		Type:  EventTypeComplete,
		JobID: jobID,
		Data:  CompleteData{JobID: jobID, Progress: 100},
	}
}
