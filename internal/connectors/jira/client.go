package jira

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/logger"
	"github.com/custodia-labs/connectord/internal/pipeline"
)

// URL path templates, grounded on jira.py's URLS map.
const (
	pathPing             = "/rest/api/2/myself"
	pathProject          = "/rest/api/2/project?expand=description,lead,url"
	pathIssues           = "/rest/api/2/search?maxResults=%d&startAt=%d"
	pathIssueData        = "/rest/api/2/issue/%s"
	pathAttachmentCloud  = "/rest/api/2/attachment/content/%s"
	pathAttachmentServer = "/secure/attachment/%s/%s"
)

// FetchSize is the page size used when paginating issue search results,
// mirroring jira.py's FETCH_SIZE.
const FetchSize = 100

// MaxConcurrentDownloads is the hard ceiling Jira's attachment API supports
// concurrently, mirroring jira.py's MAX_CONCURRENT_DOWNLOADS.
const MaxConcurrentDownloads = 50

// MaxConcurrency bounds how many attachment batches are processed at once,
// mirroring jira.py's MAX_CONCURRENCY.
const MaxConcurrency = 5

// FileSizeLimit is the largest attachment body downloaded for content
// extraction, mirroring jira.py's FILE_SIZE_LIMIT.
const FileSizeLimit = 10_485_760

// ProactiveRate self-throttles outgoing requests before Jira ever has a
// chance to return a 429, pairing a token bucket with reactive header
// parsing -- jira.py has no equivalent proactive throttle, so this is a
// Go-side addition layered on top of its retry loop rather than a port of
// Python behaviour.
const ProactiveRate = 10 // requests/sec

// client wraps an *http.Client with Jira basic auth, TLS configuration and
// the retry/backoff loop every API call goes through, grounded on jira.py's
// _generate_session/_api_call.
type client struct {
	cfg     Config
	http    *http.Client
	sleeps  *pipeline.CancellableSleeps
	limiter *rate.Limiter
}

func newClient(cfg Config, sleeps *pipeline.CancellableSleeps) (*client, error) {
	transport := &http.Transport{}
	if cfg.SSLEnabled {
		pool := x509.NewCertPool()
		if cfg.SSLCA != "" && !pool.AppendCertsFromPEM([]byte(cfg.SSLCA)) {
			return nil, fmt.Errorf("%w: ssl_ca is not a valid PEM certificate", domain.ErrDataSourceError)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	} else {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &client{
		cfg:     cfg,
		http:    &http.Client{Transport: transport},
		sleeps:  sleeps,
		limiter: rate.NewLimiter(rate.Limit(ProactiveRate), ProactiveRate),
	}, nil
}

func (c *client) basicAuth() (string, string) {
	if c.cfg.IsCloud {
		return c.cfg.ServiceAccountID, c.cfg.APIToken
	}
	return c.cfg.Username, c.cfg.Password
}

func (c *client) joinURL(pathAndQuery string) (string, error) {
	base, err := url.Parse(c.cfg.HostURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid host_url: %v", domain.ErrDataSourceError, err)
	}
	rel, err := url.Parse(pathAndQuery)
	if err != nil {
		return "", fmt.Errorf("%w: invalid request path: %v", domain.ErrDataSourceError, err)
	}
	return base.ResolveReference(rel).String(), nil
}

// do issues a GET against pathAndQuery, retrying up to cfg.RetryCount times
// with RetryInterval**attempt backoff, grounded on jira.py's _api_call. After
// a 429 the wait is the response's Retry-After when that is longer.
func (c *client) do(ctx context.Context, pathAndQuery string) (*http.Response, error) {
	target, err := c.joinURL(pathAndQuery)
	if err != nil {
		return nil, err
	}

	var lastErr error
	var retryAfter time.Duration
	for attempt := 0; attempt <= c.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			wait := backoffDuration(attempt)
			if retryAfter > wait {
				wait = retryAfter
			}
			retryAfter = 0
			if err := c.sleeps.Sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDataSourceError, err)
		}
		user, pass := c.basicAuth()
		req.SetBasicAuth(user, pass)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrTransport, err)
			logger.Warn("jira: attempt %d/%d failed: %v", attempt+1, c.cfg.RetryCount+1, err)
			continue
		}
		if rlErr := checkRateLimit(resp); rlErr != nil {
			resp.Body.Close()
			lastErr = rlErr
			var rl *RateLimitError
			if errors.As(rlErr, &rl) {
				retryAfter = rl.RetryAfter
			}
			logger.Warn("jira: %v", rlErr)
			continue
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: jira returned %d: %s", domain.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}
		return resp, nil
	}
	var rl *RateLimitError
	if errors.As(lastErr, &rl) {
		return nil, fmt.Errorf("%w: exhausted %d retries: %v", domain.ErrRateLimited, c.cfg.RetryCount, lastErr)
	}
	return nil, fmt.Errorf("exhausted %d retries: %w", c.cfg.RetryCount, lastErr)
}

func (c *client) getJSON(ctx context.Context, pathAndQuery string) (map[string]any, error) {
	resp, err := c.do(ctx, pathAndQuery)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrTransport, err)
	}
	return out, nil
}

// getJSONArray is getJSON's counterpart for endpoints that return a bare
// JSON array at the response root, such as /rest/api/2/project.
func (c *client) getJSONArray(ctx context.Context, pathAndQuery string) ([]any, error) {
	resp, err := c.do(ctx, pathAndQuery)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out []any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrTransport, err)
	}
	return out, nil
}

func (c *client) ping(ctx context.Context) error {
	_, err := c.getJSON(ctx, pathPing)
	return err
}

// downloadAttachment reads an attachment's bytes into memory in one call,
// reading at most FileSizeLimit+1 bytes of the body.
func (c *client) downloadAttachment(ctx context.Context, attachmentID, attachmentName string) ([]byte, error) {
	path := fmt.Sprintf(pathAttachmentCloud, attachmentID)
	if !c.cfg.IsCloud {
		path = fmt.Sprintf(pathAttachmentServer, attachmentID, attachmentName)
	}
	resp, err := c.do(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, FileSizeLimit+1))
}
