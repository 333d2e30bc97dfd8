package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var errDial = errors.New("dial tcp: connection refused")

func flakyTransport(failures int32, calls *atomic.Int32) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		n := calls.Add(1)
		if n <= failures {
			return nil, errDial
		}
		body, _ := io.ReadAll(r.Body)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("echo:" + string(body))),
			Request:    r,
		}, nil
	})
}

func TestDoRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	var retried []int
	c := NewWithHTTPClient(&http.Client{Transport: flakyTransport(2, &calls)},
		RetryPolicy{Attempts: 3, Delay: time.Millisecond},
		func(attempt int, _ error) { retried = append(retried, attempt) })

	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, URL: "http://upstream/x", Body: []byte("abc")})
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, "echo:abc", string(resp.Body), "body must be replayed on every attempt")
	require.Equal(t, []int{1, 2}, retried)
}

func TestDoGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	c := NewWithHTTPClient(&http.Client{Transport: flakyTransport(100, &calls)},
		RetryPolicy{Attempts: 3, Delay: time.Millisecond}, nil)

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://upstream/x"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, 3, te.Attempts)
	require.Equal(t, int32(3), calls.Load())
}

func TestDoDoesNotRetryHTTPStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), RetryPolicy{Attempts: 3, Delay: time.Millisecond}, nil)
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	require.False(t, resp.OK())
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestDoDecoratesEveryAttempt(t *testing.T) {
	var seen []string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = append(seen, r.Header.Get("X-Attempt"))
		if len(seen) < 2 {
			return nil, errDial
		}
		return &http.Response{StatusCode: http.StatusNoContent, Header: http.Header{}, Body: http.NoBody}, nil
	})
	n := 0
	c := NewWithHTTPClient(&http.Client{Transport: rt}, RetryPolicy{Attempts: 3, Delay: time.Millisecond}, nil)
	_, err := c.Do(context.Background(), Request{
		Method:   http.MethodGet,
		URL:      "http://upstream/x",
		Header:   http.Header{"Accept": {"application/json"}},
		Decorate: func(h http.Header) { n++; h.Set("X-Attempt", string(rune('0'+n))) },
	})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, seen)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	var calls atomic.Int32
	c := NewWithHTTPClient(&http.Client{Transport: flakyTransport(100, &calls)},
		RetryPolicy{Attempts: 3, Delay: time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, URL: "http://upstream/x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildTLS(t *testing.T) {
	cfg, err := buildTLS(TLSConfig{InsecureSkipVerify: true})
	require.NoError(t, err)
	require.True(t, cfg.InsecureSkipVerify)

	_, err = buildTLS(TLSConfig{CAFile: "/nonexistent/ca.pem"})
	require.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "short", Excerpt([]byte(" short \n"), 10))
	require.Equal(t, "abc…", Excerpt([]byte("abcdef"), 3))
}
