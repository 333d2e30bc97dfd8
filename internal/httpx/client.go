// Package httpx provides the outbound HTTP client shared by upstream
// integrations. Requests are fully buffered so that transport failures can
// be retried with a fixed attempt budget; HTTP status codes are returned to
// the caller untouched and are never retried here.
package httpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultAttempts is the total number of tries for one request.
	DefaultAttempts = 3
	// DefaultRetryDelay is the constant pause between two tries.
	DefaultRetryDelay = 200 * time.Millisecond
	// DefaultTimeout bounds a single try, including reading the body.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 10 << 20 // 10 MiB
)

// ErrTransport marks a request that never produced an HTTP response
// after every attempt was spent.
var ErrTransport = errors.New("httpx: transport failure")

// RetryPolicy controls how transport failures are retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, first one included.
	Attempts int `yaml:"attempts"`
	// Delay is the constant pause between tries.
	Delay time.Duration `yaml:"delay"`
}

func (p *RetryPolicy) defaults() {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
}

// TLSConfig selects how the upstream certificate chain is verified.
type TLSConfig struct {
	// InsecureSkipVerify disables chain verification entirely.
	InsecureSkipVerify bool
	// CAFile is a PEM bundle used as the root pool. When set it wins over
	// InsecureSkipVerify.
	CAFile string
}

// Config configures a Client.
type Config struct {
	Timeout time.Duration
	Retry   RetryPolicy
	TLS     TLSConfig

	// OnRetry is called before every retry with the 1-based number of the
	// attempt that failed.
	OnRetry func(attempt int, err error)
}

// Client sends replayable requests with a fixed retry policy.
type Client struct {
	http    *http.Client
	retry   RetryPolicy
	onRetry func(attempt int, err error)
}

// New builds a Client with its own transport.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	tlsCfg, err := buildTLS(cfg.TLS)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg

	return NewWithHTTPClient(&http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, cfg.Retry, cfg.OnRetry), nil
}

// NewWithHTTPClient wraps an existing *http.Client.
func NewWithHTTPClient(hc *http.Client, retry RetryPolicy, onRetry func(int, error)) *Client {
	retry.defaults()
	return &Client{http: hc, retry: retry, onRetry: onRetry}
}

// buildTLS returns the TLS settings for upstream connections.
func buildTLS(cfg TLSConfig) (*tls.Config, error) {
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("httpx: read ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("httpx: ca_file %s contains no PEM certificates", cfg.CAFile)
		}
		return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
	}
	// The SaluteSpeech endpoints present a chain rooted outside the public
	// trust store. Skipping verification is an accepted, reviewed exception
	// for those hosts; operators can pin the root via CAFile instead.
	return &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // reviewed exception, see above
		MinVersion:         tls.VersionTLS12,
	}, nil
}

// Request is a fully buffered outbound request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Decorate, when set, runs on every attempt after Header is copied.
	// Use it for headers that must differ per try, such as request IDs.
	Decorate func(h http.Header)
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do sends req, retrying transport failures up to the configured number of
// attempts. Any HTTP response, whatever its status, ends the loop.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	attempt := 0

	op := func() (*Response, error) {
		attempt++
		resp, err := c.once(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retry.Delay)),
		backoff.WithMaxTries(uint(c.retry.Attempts)),
		backoff.WithNotify(func(err error, _ time.Duration) {
			if c.onRetry != nil {
				c.onRetry(attempt, err)
			}
		}),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &TransportError{Method: req.Method, Attempts: attempt, Err: err}
	}
	return resp, nil
}

// once performs a single try.
func (c *Client) once(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("httpx: build request: %w", err))
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if req.Decorate != nil {
		req.Decorate(httpReq.Header)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("httpx: read response: %w", err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// TransportError is returned when no attempt produced an HTTP response.
type TransportError struct {
	Method   string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("httpx: %s failed after %d attempt(s): %v", e.Method, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Excerpt returns at most n bytes of body for diagnostics.
func Excerpt(body []byte, n int) string {
	if len(body) <= n {
		return string(bytes.TrimSpace(body))
	}
	return string(bytes.TrimSpace(body[:n])) + "…"
}
