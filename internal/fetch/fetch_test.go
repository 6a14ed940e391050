package fetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madx/backlinkd/internal/fetch"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{})

	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(page.Body), "hello")
}

func TestFetchFollowsRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "final")
	}))
	defer target.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirecting.Close()

	f := fetch.New(fetch.Config{})

	page, err := f.Fetch(context.Background(), redirecting.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "final", string(page.Body))
}

func TestFetchRedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{MaxRedirects: 5})

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	var netErr *fetch.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{})

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var httpErr *fetch.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, http.StatusNotFound, fetch.StatusCodeOf(err))
	assert.False(t, fetch.IsTimeout(err))
}

func TestFetchTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	f := fetch.New(fetch.Config{Timeout: 50 * time.Millisecond})

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, fetch.IsTimeout(err))
	assert.Equal(t, 0, fetch.StatusCodeOf(err))
}

func TestFetchNetworkError(t *testing.T) {
	f := fetch.New(fetch.Config{Timeout: 2 * time.Second})

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)

	var netErr *fetch.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.False(t, fetch.IsTimeout(err))
}
