// Package rating looks up third-party domain authority scores. Ratings are
// best-effort enrichment: callers record failures and move on.
package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/madx/backlinkd/internal/logger"
)

const (
	defaultBaseURL = "https://api.ahrefs.com/v3"
	defaultTimeout = 10 * time.Second

	userAgent = "backlinkd/1.0"

	// maxRatingBodyBytes bounds the rating API response read.
	maxRatingBodyBytes = 1 << 20
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("domain rating API key not configured")

// ErrNoData is returned when the API answered without a rating value.
var ErrNoData = errors.New("no domain rating data available")

// Rater returns a 0-100 authority score for a bare domain.
type Rater interface {
	DomainRating(ctx context.Context, domain string) (int, error)
}

// Config configures the rating client.
type Config struct {
	// APIKey authenticates against the rating API. Empty disables lookups.
	APIKey string `mapstructure:"api_key"`
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds a single lookup.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Client queries the Ahrefs domain-rating endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a rating client.
func NewClient(cfg Config, log logger.Logger) *Client {
	cfg.SetDefaults()

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// ratingResponse is the wire shape of the domain-rating endpoint.
type ratingResponse struct {
	DomainRating *float64 `json:"domain_rating"`
}

// DomainRating returns the authority score for a domain. The input may be a
// full URL; it is reduced to a bare domain before the lookup.
func (c *Client) DomainRating(ctx context.Context, domain string) (int, error) {
	if c.apiKey == "" {
		return 0, ErrNoAPIKey
	}

	target := CleanDomain(domain)
	endpoint := fmt.Sprintf("%s/site-explorer/domain-rating?target=%s&token=%s",
		c.baseURL, url.QueryEscape(target), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create rating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("domain rating lookup for %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("domain rating lookup for %s: http status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRatingBodyBytes))
	if err != nil {
		return 0, fmt.Errorf("read rating response: %w", err)
	}

	var parsed ratingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("parse rating response: %w", err)
	}
	if parsed.DomainRating == nil {
		return 0, ErrNoData
	}

	score := int(math.Round(*parsed.DomainRating))
	c.log.Debug("domain rating fetched",
		logger.String("domain", target),
		logger.Int("rating", score),
	)

	return score, nil
}

// CleanDomain reduces a URL or host string to a bare domain: no scheme, no
// www. prefix, no path.
func CleanDomain(raw string) string {
	d := strings.TrimPrefix(raw, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if idx := strings.IndexByte(d, '/'); idx >= 0 {
		d = d[:idx]
	}
	return d
}
