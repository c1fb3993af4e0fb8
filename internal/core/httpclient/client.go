package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/core/proxy"

	"go.uber.org/zap"
)

// sensitiveParams are query parameters whose values never reach the logs.
var sensitiveParams = map[string]bool{
	"api_key":      true,
	"api_password": true,
}

// LoggingRoundTripper captures request details for debugging.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details with credentials masked.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	target := RedactURL(req.URL)

	logger.Get().Debug("HTTP Request Started",
		zap.String("method", req.Method),
		zap.String("url", target),
	)

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		logger.Get().Error("HTTP Request Failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Get().Debug("HTTP Request Completed",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// Option customises the client built by NewClient.
type Option func(*http.Transport)

// WithProxy routes requests through the configured upstream proxy.
func WithProxy(settings proxy.Settings) Option {
	return func(tr *http.Transport) {
		if !settings.HasProxy() {
			return
		}
		proxyURL, err := url.Parse(settings.FullURL())
		if err != nil {
			logger.Get().Warn("Ignoring invalid proxy settings", zap.String("proxy", settings.HostPort()))
			return
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	}
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	for _, opt := range opts {
		opt(transport)
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: transport,
		},
		Timeout: timeout,
	}
}

// RedactURL renders u with credential query parameters masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for name := range q {
		if !sensitiveParams[name] {
			continue
		}
		if name == "api_key" {
			q.Set(name, MaskKey(q.Get(name)))
		} else {
			q.Set(name, "***")
		}
		changed = true
	}
	if !changed {
		return u.String()
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}

// MaskKey shows the first and last four characters of a key.
func MaskKey(key string) string {
	switch {
	case key == "":
		return "(empty)"
	case len(key) <= 8:
		return "***"
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}
