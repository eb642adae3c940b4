// Package restcountries queries the REST Countries v2 "search by name"
// endpoint.
package restcountries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/country"
	"github.com/pders01/cntry/internal/debuglog"
	"github.com/pders01/cntry/internal/validation"
)

const (
	namePath = "/v2/name/"
	// maxBodySize bounds the response read; the largest real answer is a few
	// hundred kilobytes.
	maxBodySize = 8 << 20
)

type Client struct {
	baseURL   string
	client    *http.Client
	userAgent string
	limiter   *RateLimiter
}

type Option func(*Client)

// WithHTTPClient replaces the default client built from the config timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimiter replaces the limiter built from the config.
func WithRateLimiter(l *RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	validator := validation.NewBaseURLValidator()
	if cfg.API.AllowLocal {
		validator = validation.NewPermissiveBaseURLValidator()
	}
	base, err := validator.ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api.base_url: %w", err)
	}

	c := &Client{
		baseURL:   base,
		client:    &http.Client{Timeout: cfg.API.HTTPTimeout},
		userAgent: cfg.API.UserAgent,
		limiter:   NewRateLimiter(cfg.API.RequestsPerSecond, cfg.API.Burst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NameURL builds the request URL for term. The term is percent-encoded as a
// single path segment.
func (c *Client) NameURL(term string) string {
	return c.baseURL + namePath + url.PathEscape(term)
}

// FetchCountries returns every country whose name matches term, in the
// order the service returned them.
func (c *Client) FetchCountries(ctx context.Context, term string) ([]country.Country, error) {
	log := debuglog.WithFields(map[string]interface{}{"component": "restcountries", "term": term})

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.NameURL(term), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warnf("request failed: %v", err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	log.Debugf("GET %s -> %d in %s", req.URL.Redacted(), resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.RecordRetryAfter(retryAfter(resp, time.Now()))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &RequestError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	return decodeCountries(body)
}

// statusText strips the numeric code from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// decodeCountries checks that body is a JSON array of named country objects.
func decodeCountries(body []byte) ([]country.Country, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedResponseError{Reason: "expected a JSON array"}
	}

	var countries []country.Country
	if err := json.Unmarshal(trimmed, &countries); err != nil {
		return nil, &MalformedResponseError{Reason: "decoding countries", Err: err}
	}

	for i, c := range countries {
		if strings.TrimSpace(c.Name) == "" {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("record %d has no name", i)}
		}
	}

	return countries, nil
}
