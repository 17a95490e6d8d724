// Package httpclient provides a shared HTTP client factory for outbound
// delivery. Webhook hooks and tracker integrations go through clients built
// here so that pooling, proxy routing, and TLS posture stay consistent across
// every egress path.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total request timeout (default: duration.WebhookTimeout)
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification. Deliveries go
	// to operator-configured endpoints, so this defaults to false.
	InsecureSkipVerify bool

	// Proxy is the egress proxy URL (http, https, socks5, socks5h)
	Proxy string

	// MaxIdleConns is the idle connection pool size across all hosts
	MaxIdleConns int

	// MaxConnsPerHost caps connections per delivery endpoint
	MaxConnsPerHost int

	// IdleConnTimeout is how long idle connections stay pooled
	IdleConnTimeout time.Duration

	// DisableKeepAlives disables HTTP keep-alives if true
	DisableKeepAlives bool

	// DialTimeout is the timeout for establishing connections
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the timeout for the TLS handshake
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns defaults tuned for delivery traffic: a handful of
// long-lived connections to a small set of endpoints, not scan fan-out.
func DefaultConfig() Config {
	return Config{
		Timeout:             duration.WebhookTimeout,
		InsecureSkipVerify:  false,
		MaxIdleConns:        defaults.HTTPMaxIdleConns,
		MaxConnsPerHost:     defaults.HTTPMaxConnsPerHost,
		IdleConnTimeout:     duration.IdleConnTimeout,
		DisableKeepAlives:   false,
		DialTimeout:         duration.DialTimeout,
		TLSHandshakeTimeout: duration.TLSHandshakeTimeout,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns a shared, pre-configured HTTP client.
// This client is safe for concurrent use and employs connection pooling.
// Hooks should prefer Default() unless they need per-hook settings.
//
// The default client:
//   - Pools connections (20 idle, 5 per endpoint)
//   - Times out whole requests after duration.WebhookTimeout
//   - Verifies TLS certificates
//   - Does NOT follow redirects (returns http.ErrUseLastResponse)
//   - Enables HTTP/2
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// New creates a new HTTP client with the given configuration.
// Use this when a hook needs non-default settings, such as a per-hook
// timeout or an egress proxy. Zero-valued fields fall back to defaults.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = duration.WebhookTimeout
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = defaults.HTTPMaxIdleConns
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = defaults.HTTPMaxConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = duration.IdleConnTimeout
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = duration.DialTimeout
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = duration.TLSHandshakeTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: duration.KeepAlive,
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableKeepAlives:   cfg.DisableKeepAlives,

		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: duration.ExpectContinueTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,

		DialContext: dialer.DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	// Proxy support (optional). A malformed proxy URL is ignored and the
	// client dials direct, matching how a missing proxy behaves.
	if cfg.Proxy != "" {
		if pc, err := ParseProxyURL(cfg.Proxy); err == nil && pc != nil {
			if pc.IsSOCKS {
				if socksDialer, derr := CreateSOCKSDialer(pc, cfg.DialTimeout); derr == nil {
					transport.DialContext = socksDialer.DialContext
				}
			} else {
				transport.Proxy = http.ProxyURL(pc.URL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Redirects would re-send the event payload to an address the
			// operator never configured, so surface them instead.
			return http.ErrUseLastResponse
		},
	}
}

// WithTimeout returns a new Config based on DefaultConfig with the specified timeout.
// Convenience function for the common case of only needing to change timeout.
func WithTimeout(timeout time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Timeout = timeout
	return cfg
}

// WithProxy returns a new Config based on DefaultConfig with the specified proxy.
// Convenience function for the common case of only needing to add a proxy.
func WithProxy(proxyURL string) Config {
	cfg := DefaultConfig()
	cfg.Proxy = proxyURL
	return cfg
}
