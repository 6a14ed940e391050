package rating_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/rating"
)

func TestCleanDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/some/page", "example.com"},
		{"http://example.com", "example.com"},
		{"example.com/page", "example.com"},
		{"example.com", "example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rating.CleanDomain(tt.in))
	}
}

func TestDomainRating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/site-explorer/domain-rating", r.URL.Path)
		assert.Equal(t, "example.com", r.URL.Query().Get("target"))
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		fmt.Fprint(w, `{"domain_rating": 74.4}`)
	}))
	defer srv.Close()

	c := rating.NewClient(rating.Config{APIKey: "secret", BaseURL: srv.URL}, logger.NewNop())

	score, err := c.DomainRating(context.Background(), "https://www.example.com/page")
	require.NoError(t, err)
	assert.Equal(t, 74, score)
}

func TestDomainRatingNoAPIKey(t *testing.T) {
	c := rating.NewClient(rating.Config{}, logger.NewNop())

	_, err := c.DomainRating(context.Background(), "example.com")
	assert.ErrorIs(t, err, rating.ErrNoAPIKey)
}

func TestDomainRatingNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := rating.NewClient(rating.Config{APIKey: "secret", BaseURL: srv.URL}, logger.NewNop())

	_, err := c.DomainRating(context.Background(), "example.com")
	assert.ErrorIs(t, err, rating.ErrNoData)
}

func TestDomainRatingHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := rating.NewClient(rating.Config{APIKey: "bad", BaseURL: srv.URL}, logger.NewNop())

	_, err := c.DomainRating(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
