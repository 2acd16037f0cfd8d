package jira

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromMap_Defaults(t *testing.T) {
	cfg := configFromMap(map[string]any{})
	assert.True(t, cfg.IsCloud)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.HostURL)
	assert.Equal(t, 3, cfg.RetryCount)
	assert.Equal(t, MaxConcurrentDownloads, cfg.ConcurrentDownloads)
}

func TestConfigFromMap_Overrides(t *testing.T) {
	cfg := configFromMap(map[string]any{
		"is_cloud":             false,
		"username":             "bob",
		"password":             "secret",
		"host_url":             "https://jira.example.com",
		"retry_count":          5,
		"concurrent_downloads": 10,
	})
	assert.False(t, cfg.IsCloud)
	assert.Equal(t, "bob", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "https://jira.example.com", cfg.HostURL)
	assert.Equal(t, 5, cfg.RetryCount)
	assert.Equal(t, 10, cfg.ConcurrentDownloads)
}

func TestGetDefaultConfiguration_HasAllFields(t *testing.T) {
	opts := GetDefaultConfiguration()
	for _, key := range []string{
		"is_cloud", "username", "password", "service_account_id", "api_token",
		"host_url", "ssl_enabled", "ssl_ca", "enable_content_extraction",
		"retry_count", "concurrent_downloads",
	} {
		_, ok := opts[key]
		assert.True(t, ok, "missing config option %q", key)
	}
}

func TestBackoffDuration(t *testing.T) {
	assert.Equal(t, time.Second, backoffDuration(0))
	assert.Equal(t, 2*time.Second, backoffDuration(1))
	assert.Equal(t, 4*time.Second, backoffDuration(2))
	assert.Equal(t, 8*time.Second, backoffDuration(3))
}

func TestCheckRateLimit(t *testing.T) {
	t.Run("non-429 passes", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
		assert.NoError(t, checkRateLimit(resp))
	})

	t.Run("429 without Retry-After uses default backoff", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
		err := checkRateLimit(resp)
		var rlErr *RateLimitError
		assert.ErrorAs(t, err, &rlErr)
		assert.Equal(t, 2*time.Second, rlErr.RetryAfter)
	})

	t.Run("429 with Retry-After honors header", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "30")
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: h}
		err := checkRateLimit(resp)
		var rlErr *RateLimitError
		assert.ErrorAs(t, err, &rlErr)
		assert.Equal(t, 30*time.Second, rlErr.RetryAfter)
	})
}

func TestConnector_ValidateConfig(t *testing.T) {
	t.Run("cloud requires service account and token", func(t *testing.T) {
		c := &Connector{cfg: configFromMap(map[string]any{"is_cloud": true, "host_url": "http://x"})}
		assert.Error(t, c.ValidateConfig())
	})

	t.Run("cloud with all fields is valid", func(t *testing.T) {
		c := &Connector{cfg: configFromMap(map[string]any{
			"is_cloud": true, "host_url": "http://x",
			"service_account_id": "me@example.com", "api_token": "tok",
		})}
		assert.NoError(t, c.ValidateConfig())
	})

	t.Run("server requires username and password", func(t *testing.T) {
		c := &Connector{cfg: configFromMap(map[string]any{"is_cloud": false, "host_url": "http://x"})}
		assert.Error(t, c.ValidateConfig())
	})

	t.Run("rejects concurrent downloads above the Jira ceiling", func(t *testing.T) {
		c := &Connector{cfg: configFromMap(map[string]any{
			"is_cloud": true, "host_url": "http://x",
			"service_account_id": "me@example.com", "api_token": "tok",
			"concurrent_downloads": MaxConcurrentDownloads + 1,
		})}
		assert.Error(t, c.ValidateConfig())
	})

	t.Run("rejects ssl_enabled without ssl_ca", func(t *testing.T) {
		c := &Connector{cfg: configFromMap(map[string]any{
			"is_cloud": true, "host_url": "http://x",
			"service_account_id": "me@example.com", "api_token": "tok",
			"ssl_enabled": true,
		})}
		assert.Error(t, c.ValidateConfig())
	})
}

func TestEstimateSize(t *testing.T) {
	assert.Greater(t, estimateSize(map[string]any{"title": "hello world"}), 0)
	assert.Equal(t, 256, estimateSize(map[string]any{}))
}
