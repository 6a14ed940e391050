package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madx/backlinkd/internal/engine"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/sse"
	"github.com/madx/backlinkd/internal/store"
)

func recrawlRequest(jobID, itemID string, claim store.Claim) RecrawlRequest {
	req := RecrawlRequest{JobID: jobID}
	req.Item.ID = itemID
	req.Item.Claim = claim
	return req
}

func waitForEvents(t *testing.T, bus *mockBus, n int) []sse.Event {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(bus.snapshot()) >= n
	}, 2*time.Second, 10*time.Millisecond)

	return bus.snapshot()
}

func TestRecrawlUnknownBatch(t *testing.T) {
	st := store.NewMemoryStore()
	bus := &mockBus{}

	s := New(st, &mockChecker{}, bus, nil, Config{}, logger.NewNop())
	defer s.Stop()

	claim := store.Claim{URLFrom: "https://a.example.com", URLTo: "https://t.com", AnchorText: "hi"}
	s.Recrawl(recrawlRequest("ghost-job", "item-1", claim))

	events := waitForEvents(t, bus, 1)
	require.Len(t, events, 1)
	assert.Equal(t, "ghost-job", events[0].JobID)

	data := progressOf(t, events[0])
	assert.Nil(t, data.Progress)
	assert.Equal(t, store.StatusError, data.Item.Status)
	require.NotNil(t, data.Item.Error)
	assert.Equal(t, "batch not found", *data.Item.Error)
	// Caller-supplied claim fields are echoed so the row can still render.
	assert.Equal(t, "item-1", data.Item.ID)
	assert.Equal(t, claim, data.Item.Claim)
}

func TestRecrawlUnknownItem(t *testing.T) {
	st := store.NewMemoryStore()
	bus := &mockBus{}

	s := New(st, &mockChecker{}, bus, nil, Config{}, logger.NewNop())
	defer s.Stop()

	newTestBatch(t, st, "job-1", store.Claim{URLFrom: "https://a.example.com", URLTo: "https://t.com"})

	s.Recrawl(recrawlRequest("job-1", "ghost-item", store.Claim{URLFrom: "https://x.com", URLTo: "https://t.com"}))

	events := waitForEvents(t, bus, 1)
	data := progressOf(t, events[0])
	assert.Equal(t, store.StatusError, data.Item.Status)
	require.NotNil(t, data.Item.Error)
	assert.Equal(t, "item not found", *data.Item.Error)

	// The store is untouched.
	batch, err := st.SnapshotBatch("job-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, batch.Items[0].Status)
}

func TestRecrawlRechecksItem(t *testing.T) {
	st := store.NewMemoryStore()
	bus := &mockBus{}
	checker := &mockChecker{outcomes: map[string]engine.Outcome{
		"https://a.example.com": foundOutcome(200),
	}}

	s := New(st, checker, bus, nil, Config{}, logger.NewNop())
	defer s.Stop()

	claim := store.Claim{URLFrom: "https://a.example.com", URLTo: "https://t.com"}
	batch := newTestBatch(t, st, "job-1", claim)

	// Seed a prior failed result, as if a batch pass already ran.
	item := batch.Items[0]
	item.Lock()
	item.Status = store.StatusTimeout
	msg := "request timed out"
	item.Error = &msg
	item.Unlock()

	s.Recrawl(recrawlRequest("job-1", item.ID, claim))

	events := waitForEvents(t, bus, 2)
	require.Len(t, events, 2)

	first := progressOf(t, events[0])
	assert.Nil(t, first.Progress, "recrawl events carry no batch percentage")
	assert.Equal(t, store.StatusChecking, first.Item.Status)
	assert.Nil(t, first.Item.Error, "prior error is cleared before re-checking")
	assert.Nil(t, first.Item.StatusCode)

	second := progressOf(t, events[1])
	assert.Nil(t, second.Progress)
	assert.Equal(t, store.StatusFound, second.Item.Status)
	assert.True(t, second.Item.Found)

	got, ok := st.GetItem("job-1", item.ID)
	require.True(t, ok)
	got.Lock()
	defer got.Unlock()
	assert.Equal(t, store.StatusFound, got.Status)
	assert.Nil(t, got.Error)
}

func TestRecrawlSerializesWithBatchPass(t *testing.T) {
	st := store.NewMemoryStore()
	bus := &mockBus{}
	checker := &mockChecker{outcomes: map[string]engine.Outcome{
		"https://a.example.com": foundOutcome(200),
	}}

	s := New(st, checker, bus, nil, Config{PacingInterval: time.Millisecond}, logger.NewNop())
	defer s.Stop()

	claim := store.Claim{URLFrom: "https://a.example.com", URLTo: "https://t.com"}
	batch := newTestBatch(t, st, "job-1", claim)

	require.NoError(t, s.Submit("job-1"))
	s.Recrawl(recrawlRequest("job-1", batch.Items[0].ID, claim))

	waitForComplete(t, bus)
	// Both writers finish with the item in a terminal state; the per-item
	// lock guarantees the writes did not interleave.
	require.Eventually(t, func() bool {
		got, ok := st.GetItem("job-1", batch.Items[0].ID)
		if !ok {
			return false
		}
		got.Lock()
		defer got.Unlock()
		return got.Status == store.StatusFound
	}, 2*time.Second, 10*time.Millisecond)
}
