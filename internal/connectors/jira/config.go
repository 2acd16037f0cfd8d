package jira

import "github.com/custodia-labs/connectord/internal/core/domain"

// Config is the resolved, typed form of a Jira connector's persisted
// configuration, grounded field-for-field on jira.py's get_default_configuration.
type Config struct {
	IsCloud                 bool
	Username                string
	Password                string
	ServiceAccountID        string
	APIToken                string
	HostURL                 string
	SSLEnabled              bool
	SSLCA                   string
	EnableContentExtraction bool
	RetryCount              int
	ConcurrentDownloads     int
}

// GetDefaultConfiguration returns the Jira adapter's configuration option
// descriptors.
func GetDefaultConfiguration() map[string]domain.ConfigOption {
	return map[string]domain.ConfigOption{
		"is_cloud": {
			Key: "is_cloud", Value: true,
			Label: "True if Jira Cloud, False if Jira Server", Type: domain.ConfigValueBool,
		},
		"username": {
			Key: "username", Value: "admin",
			Label: "Jira Server username", Type: domain.ConfigValueString,
		},
		"password": {
			Key: "password", Value: "",
			Label: "Jira Server password", Type: domain.ConfigValueString,
		},
		"service_account_id": {
			Key: "service_account_id", Value: "",
			Label: "Jira Cloud service account id", Type: domain.ConfigValueString,
		},
		"api_token": {
			Key: "api_token", Value: "",
			Label: "Jira Cloud API token", Type: domain.ConfigValueString,
		},
		"host_url": {
			Key: "host_url", Value: "http://127.0.0.1:8080",
			Label: "Jira host url", Type: domain.ConfigValueString,
		},
		"ssl_enabled": {
			Key: "ssl_enabled", Value: false,
			Label: "Enable SSL verification", Type: domain.ConfigValueBool,
		},
		"ssl_ca": {
			Key: "ssl_ca", Value: "",
			Label: "SSL certificate", Type: domain.ConfigValueString,
		},
		"enable_content_extraction": {
			Key: "enable_content_extraction", Value: true,
			Label: "Enable content extraction", Type: domain.ConfigValueBool,
		},
		"retry_count": {
			Key: "retry_count", Value: 3,
			Label: "Maximum retries for failed requests", Type: domain.ConfigValueInt,
		},
		"concurrent_downloads": {
			Key: "concurrent_downloads", Value: MaxConcurrentDownloads,
			Label: "Number of concurrent downloads for fetching attachment content", Type: domain.ConfigValueInt,
		},
	}
}

func configFromMap(m map[string]any) Config {
	return Config{
		IsCloud:                 asBool(m["is_cloud"], true),
		Username:                asString(m["username"], "admin"),
		Password:                asString(m["password"], ""),
		ServiceAccountID:        asString(m["service_account_id"], ""),
		APIToken:                asString(m["api_token"], ""),
		HostURL:                 asString(m["host_url"], "http://127.0.0.1:8080"),
		SSLEnabled:              asBool(m["ssl_enabled"], false),
		SSLCA:                   asString(m["ssl_ca"], ""),
		EnableContentExtraction: asBool(m["enable_content_extraction"], true),
		RetryCount:              asInt(m["retry_count"], 3),
		ConcurrentDownloads:     asInt(m["concurrent_downloads"], MaxConcurrentDownloads),
	}
}

func asString(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func asBool(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func asInt(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
