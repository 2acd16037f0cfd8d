package jira

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RetryInterval is the base of the exponential backoff applied between a
// failed API call and its retry: RetryInterval**attempt seconds, mirroring
// jira.py's RETRY_INTERVAL.
const RetryInterval = 2

// RateLimitError reports that Jira rejected a request for rate-limiting
// reasons and names how long the caller should wait before retrying.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("jira: rate limited (status %d), retry after %s", e.StatusCode, e.RetryAfter)
}

// checkRateLimit inspects resp for a 429 and returns a *RateLimitError
// describing the wait: the Retry-After header's seconds when present and
// numeric, otherwise backoffDuration(1). Any other status returns nil.
func checkRateLimit(resp *http.Response) error {
	if resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	wait := backoffDuration(1)
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			wait = time.Duration(secs) * time.Second
		}
	}
	return &RateLimitError{StatusCode: resp.StatusCode, RetryAfter: wait}
}

// backoffDuration computes RetryInterval**attempt seconds, matching
// jira.py's `await self._sleeps.sleep(RETRY_INTERVAL**retry)`.
func backoffDuration(attempt int) time.Duration {
	seconds := 1
	for i := 0; i < attempt; i++ {
		seconds *= RetryInterval
	}
	return time.Duration(seconds) * time.Second
}
