package engine_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madx/backlinkd/internal/engine"
	"github.com/madx/backlinkd/internal/fetch"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/store"
)

func newEngine(timeout time.Duration) *engine.Engine {
	return engine.New(fetch.New(fetch.Config{Timeout: timeout}), logger.NewNop())
}

func TestCheckFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="https://target.com/page">Click Here</a></body></html>`)
	}))
	defer srv.Close()

	out := newEngine(5 * time.Second).Check(context.Background(), store.Claim{
		URLFrom:    srv.URL,
		URLTo:      "target.com/page",
		AnchorText: "click here",
	})

	assert.Equal(t, store.StatusFound, out.Status)
	assert.True(t, out.Found)
	require.NotNil(t, out.StatusCode)
	assert.Equal(t, http.StatusOK, *out.StatusCode)
	assert.Nil(t, out.Error)
	require.NotNil(t, out.MatchDetails)
	assert.Contains(t, *out.MatchDetails, "Click Here")
}

func TestCheckNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="https://other.com/">elsewhere</a></body></html>`)
	}))
	defer srv.Close()

	out := newEngine(5 * time.Second).Check(context.Background(), store.Claim{
		URLFrom: srv.URL,
		URLTo:   "target.com/page",
	})

	assert.Equal(t, store.StatusNotFound, out.Status)
	assert.False(t, out.Found)
	assert.Nil(t, out.Error)
	assert.Nil(t, out.MatchDetails)
	require.NotNil(t, out.StatusCode)
	assert.Equal(t, http.StatusOK, *out.StatusCode)
}

func TestCheckTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	out := newEngine(50 * time.Millisecond).Check(context.Background(), store.Claim{
		URLFrom: srv.URL,
		URLTo:   "target.com",
	})

	assert.Equal(t, store.StatusTimeout, out.Status)
	assert.False(t, out.Found)
	assert.Nil(t, out.StatusCode)
	require.NotNil(t, out.Error)
	assert.Contains(t, *out.Error, "timeout")
}

func TestCheckHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	out := newEngine(5 * time.Second).Check(context.Background(), store.Claim{
		URLFrom: srv.URL,
		URLTo:   "target.com",
	})

	assert.Equal(t, store.StatusError, out.Status)
	require.NotNil(t, out.StatusCode)
	assert.Equal(t, http.StatusForbidden, *out.StatusCode)
	require.NotNil(t, out.Error)
}

func TestCheckNetworkError(t *testing.T) {
	out := newEngine(2 * time.Second).Check(context.Background(), store.Claim{
		URLFrom: "http://127.0.0.1:1",
		URLTo:   "target.com",
	})

	assert.Equal(t, store.StatusError, out.Status)
	assert.Nil(t, out.StatusCode)
	require.NotNil(t, out.Error)
}

func TestOutcomeApply(t *testing.T) {
	code := 200
	details := `Found link: "x" -> /x`
	out := engine.Outcome{
		Status:       store.StatusFound,
		Found:        true,
		StatusCode:   &code,
		MatchDetails: &details,
	}

	it := &store.Item{ID: "i1", Status: store.StatusChecking}
	it.Lock()
	out.Apply(it)
	it.Unlock()

	assert.Equal(t, store.StatusFound, it.Status)
	assert.True(t, it.Found)
	assert.Equal(t, &code, it.StatusCode)
	assert.Nil(t, it.Error)
	assert.Equal(t, &details, it.MatchDetails)
}
