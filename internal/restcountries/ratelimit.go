package restcountries

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultRetryAfter is used when a 429 carries no usable Retry-After.
const defaultRetryAfter = 15 * time.Second

// RateLimiter paces requests with a token bucket and honours Retry-After
// backoff recorded from 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter. A non-positive rps disables pacing.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := retryAt.Sub(r.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRetryAfter sets a backoff window from a 429 response.
func (r *RateLimiter) RecordRetryAfter(d time.Duration) {
	if d <= 0 {
		d = defaultRetryAfter
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = r.now().Add(d)
}

// BackoffRemaining reports how long requests are held back by Retry-After.
func (r *RateLimiter) BackoffRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d := r.retryAt.Sub(r.now()); d > 0 {
		return d
	}
	return 0
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}
