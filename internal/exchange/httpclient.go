// Package exchange is the venue-agnostic boundary between the coordinator
// and whichever exchange adapter is configured.
package exchange

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// HTTPClientConfig tunes the pooled HTTP client every exchange adapter
// shares. Defaults favor low latency over throughput: the coordinator
// issues one request at a time per pair, not a burst.
type HTTPClientConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	TotalTimeout   time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	TLSHandshakeTimeout time.Duration

	DisableKeepAlives bool
	KeepAliveInterval time.Duration
}

// DefaultHTTPClientConfig returns the tuning this build ships with.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		TotalTimeout:   30 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 5 * time.Second,

		DisableKeepAlives: false,
		KeepAliveInterval: 30 * time.Second,
	}
}

// HTTPClient wraps http.Client with a tuned, poolable transport shared by
// every REST call an exchange adapter makes.
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// globalClient is the process-wide singleton every adapter reuses, so
// repeated requests to the same venue reuse one connection pool instead of
// opening a fresh one per call.
var (
	globalClient     *HTTPClient
	globalClientOnce sync.Once
)

// GetGlobalHTTPClient returns the shared client, building it from
// DefaultHTTPClientConfig on first use.
func GetGlobalHTTPClient() *HTTPClient {
	globalClientOnce.Do(func() {
		globalClient = NewHTTPClient(DefaultHTTPClientConfig())
	})
	return globalClient
}

// NewHTTPClient builds an HTTPClient from config.
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: config.KeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if deadline, ok := ctx.Deadline(); ok {
				timeout := time.Until(deadline)
				if timeout < config.ConnectTimeout {
					dialerWithTimeout := &net.Dialer{
						Timeout:   timeout,
						KeepAlive: config.KeepAliveInterval,
					}
					return dialerWithTimeout.DialContext(ctx, network, addr)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},

		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,

		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		DisableKeepAlives: config.DisableKeepAlives,

		DisableCompression:    true, // keeps latency predictable over saving bandwidth
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: config.ReadTimeout,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.TotalTimeout,
	}

	return &HTTPClient{
		client: client,
		config: config,
	}
}

// Do issues req through the pooled client.
func (hc *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return hc.client.Do(req)
}

// DoWithTimeout issues req with a per-call timeout instead of the client's
// default, for endpoints known to run slower (e.g. large kline backfills).
func (hc *HTTPClient) DoWithTimeout(req *http.Request, timeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()
	return hc.client.Do(req.WithContext(ctx))
}

// GetClient returns the underlying *http.Client for callers that need it
// directly (e.g. passing to a generated SDK client).
func (hc *HTTPClient) GetClient() *http.Client {
	return hc.client
}

// GetConfig returns the configuration the client was built with.
func (hc *HTTPClient) GetConfig() HTTPClientConfig {
	return hc.config
}

// Close releases idle connections. Call during graceful shutdown.
func (hc *HTTPClient) Close() {
	if transport, ok := hc.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// CloseGlobalClient releases the shared client's idle connections.
func CloseGlobalClient() {
	if globalClient != nil {
		globalClient.Close()
	}
}

// timeoutRoundTripper is reserved for adding per-read/write timeouts on top
// of transport-level ones; currently a pass-through.
type timeoutRoundTripper struct {
	transport    http.RoundTripper
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (t *timeoutRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.transport.RoundTrip(req)
}
