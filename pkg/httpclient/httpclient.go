// Package httpclient provides a shared, pooled HTTP client factory and the
// default transport implementation active rules send their follow-up
// transactions through.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total request timeout (default: 30s).
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification. Scan targets
	// frequently present broken or interception certificates, so this
	// defaults to true.
	InsecureSkipVerify bool

	// MaxIdleConns is the maximum number of idle connections across all
	// hosts (default: 100).
	MaxIdleConns int

	// MaxConnsPerHost is the maximum connections per host (default: 25).
	MaxConnsPerHost int

	// IdleConnTimeout is how long idle connections stay pooled (default: 90s).
	IdleConnTimeout time.Duration

	// DialTimeout is the timeout for establishing connections (default: 10s).
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the timeout for the TLS handshake (default: 10s).
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns defaults tuned for scanning workloads.
func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		InsecureSkipVerify:  true,
		MaxIdleConns:        100,
		MaxConnsPerHost:     25,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns a shared, pre-configured HTTP client. It is safe for
// concurrent use, pools connections, and does not follow redirects (the
// Sender decides per send).
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// New creates an HTTP client from the configuration. Zero values fall back
// to the DefaultConfig values.
func New(cfg Config) *http.Client {
	def := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = def.MaxConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = def.IdleConnTimeout
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ForceAttemptHTTP2:     true,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
