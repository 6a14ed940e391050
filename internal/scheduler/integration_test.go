package scheduler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madx/backlinkd/internal/engine"
	"github.com/madx/backlinkd/internal/fetch"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/sse"
	"github.com/madx/backlinkd/internal/store"
)

// TestBatchEndToEnd runs a two-item batch through the real fetch and match
// pipeline: one page carries the link, the other never responds in time.
func TestBatchEndToEnd(t *testing.T) {
	linked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<p>Read more on <a href="https://mysite.com/page">my site</a>.</p>
		</body></html>`))
	}))
	defer linked.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer slow.Close()

	eng := engine.New(fetch.New(fetch.Config{Timeout: 200 * time.Millisecond}), logger.NewNop())

	st := store.NewMemoryStore()
	bus := &mockBus{}

	s := New(st, eng, bus, nil, Config{PacingInterval: time.Millisecond}, logger.NewNop())
	defer s.Stop()

	newTestBatch(t, st, "job-1",
		store.Claim{URLFrom: linked.URL, URLTo: "https://mysite.com/page", AnchorText: "my site"},
		store.Claim{URLFrom: slow.URL, URLTo: "https://mysite.com/page"},
	)

	require.NoError(t, s.Submit("job-1"))
	waitForComplete(t, bus)

	batch, err := st.SnapshotBatch("job-1")
	require.NoError(t, err)
	require.Equal(t, store.BatchCompleted, batch.Status)

	found := batch.Items[0]
	assert.Equal(t, store.StatusFound, found.Status)
	assert.True(t, found.Found)
	require.NotNil(t, found.StatusCode)
	assert.Equal(t, http.StatusOK, *found.StatusCode)
	require.NotNil(t, found.MatchDetails)
	assert.Contains(t, *found.MatchDetails, "my site")

	timedOut := batch.Items[1]
	assert.Equal(t, store.StatusTimeout, timedOut.Status)
	assert.False(t, timedOut.Found)
	assert.Nil(t, timedOut.StatusCode)
	require.NotNil(t, timedOut.Error)

	// Event sequence: two progress events per item, then one completion.
	events := bus.snapshot()
	require.Len(t, events, 5)
	assert.Equal(t, sse.EventTypeComplete, events[4].Type)

	final := progressOf(t, events[3])
	require.NotNil(t, final.Progress)
	assert.Equal(t, 100, *final.Progress)
}
