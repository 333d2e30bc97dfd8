package salute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/flemzord/voxscribe/internal/httpx"
	"github.com/flemzord/voxscribe/internal/metrics"
	"github.com/flemzord/voxscribe/internal/stt"
)

const (
	// fallbackLifetime applies when the upstream omits expires_at.
	fallbackLifetime = 30 * time.Minute
	// epochMillisThreshold separates millisecond from second timestamps:
	// 1e11 seconds is year 5138, 1e11 milliseconds is 1973.
	epochMillisThreshold = 100_000_000_000

	refreshKey = "token"
)

// AccessToken is a bearer token and the instant it stops being valid.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// ValidAt reports whether the token can still be used at now.
func (t AccessToken) ValidAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// TokenSource hands out valid access tokens.
type TokenSource interface {
	AccessToken(ctx context.Context) (AccessToken, error)
}

// TokenCacheConfig configures a TokenCache.
type TokenCacheConfig struct {
	URL        string
	AuthData   string
	Scope      string
	AuthScheme string
	// RefreshMargin makes the cache refresh this long before ExpiresAt.
	RefreshMargin time.Duration

	Client  *httpx.Client
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// OnRefresh is called with every newly acquired token.
	OnRefresh func(AccessToken)
}

// TokenCache obtains OAuth access tokens and memoizes the current one until
// it expires. Concurrent misses share a single refresh request.
type TokenCache struct {
	cfg    TokenCacheConfig
	client *httpx.Client
	logger *slog.Logger

	current atomic.Pointer[AccessToken]
	group   singleflight.Group

	now      func() time.Time
	newRqUID func() string
}

// NewTokenCache creates an empty cache. No request is made until the first
// call to AccessToken.
func NewTokenCache(cfg TokenCacheConfig) *TokenCache {
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = defaultAuthScheme
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = httpx.NewWithHTTPClient(http.DefaultClient, httpx.RetryPolicy{}, nil)
	}
	return &TokenCache{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		now:      time.Now,
		newRqUID: uuid.NewString,
	}
}

// AccessToken returns the cached token when it is still valid and refreshes
// it otherwise. Errors are always *AuthError.
func (c *TokenCache) AccessToken(ctx context.Context) (AccessToken, error) {
	if c.cfg.AuthData == "" || c.cfg.Scope == "" {
		return AccessToken{}, &AuthError{
			Kind: MissingCredentials,
			Err:  errors.New("auth_data and scope must be set"),
		}
	}

	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	// The refresh outlives any single caller so that a cancelled waiter
	// does not fail the others sharing it.
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return AccessToken{}, res.Err
		}
		return res.Val.(AccessToken), nil
	case <-ctx.Done():
		return AccessToken{}, &AuthError{Kind: UpstreamRejected, Err: ctx.Err()}
	}
}

// State reports what the cache currently holds.
func (c *TokenCache) State() stt.TokenState {
	cur := c.current.Load()
	if cur == nil {
		return stt.TokenState{}
	}
	return stt.TokenState{
		Cached:    true,
		Valid:     c.usable(*cur),
		ExpiresAt: cur.ExpiresAt,
	}
}

func (c *TokenCache) cached() (AccessToken, bool) {
	cur := c.current.Load()
	if cur == nil || !c.usable(*cur) {
		return AccessToken{}, false
	}
	return *cur, true
}

func (c *TokenCache) usable(t AccessToken) bool {
	return t.ValidAt(c.now().Add(c.cfg.RefreshMargin))
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   json.Number `json:"expires_at"`
}

// expiresAt returns expires_at as an integer epoch. Fractional and exponent
// forms are truncated; a missing value is 0.
func (r tokenResponse) expiresAt() (int64, error) {
	if r.ExpiresAt == "" {
		return 0, nil
	}
	if n, err := r.ExpiresAt.Int64(); err == nil {
		return n, nil
	}
	f, err := r.ExpiresAt.Float64()
	if err != nil || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("invalid expires_at %q", r.ExpiresAt.String())
	}
	return int64(f), nil
}

func (c *TokenCache) refresh(ctx context.Context) (tok AccessToken, err error) {
	ctx, span := tracer.Start(ctx, "salute.token")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "token refresh failed")
		}
		span.End()
		c.cfg.Metrics.RecordTokenRefresh(err == nil)
	}()

	form := url.Values{"scope": {c.cfg.Scope}}
	header := http.Header{}
	header.Set("Authorization", c.cfg.AuthScheme+" "+c.cfg.AuthData)
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("Accept", "application/json")

	acquiredAt := c.now()
	resp, err := c.client.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		URL:    c.cfg.URL,
		Header: header,
		Body:   []byte(form.Encode()),
		Decorate: func(h http.Header) {
			h.Set("RqUID", c.newRqUID())
		},
	})
	if err != nil {
		return AccessToken{}, &AuthError{Kind: UpstreamRejected, Err: err}
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if !resp.OK() {
		return AccessToken{}, &AuthError{
			Kind:       UpstreamRejected,
			StatusCode: resp.StatusCode,
			Err:        &upstreamStatusError{StatusCode: resp.StatusCode, Body: httpx.Excerpt(resp.Body, 256)},
		}
	}

	var payload tokenResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return AccessToken{}, &AuthError{Kind: UpstreamRejected, StatusCode: resp.StatusCode, Err: err}
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return AccessToken{}, &AuthError{
			Kind:       UpstreamRejected,
			StatusCode: resp.StatusCode,
			Err:        errors.New("response has no access_token"),
		}
	}

	expires, err := payload.expiresAt()
	if err != nil {
		return AccessToken{}, &AuthError{Kind: UpstreamRejected, StatusCode: resp.StatusCode, Err: err}
	}

	tok = AccessToken{
		Value:     payload.AccessToken,
		ExpiresAt: expiryFrom(expires, acquiredAt),
	}
	if c.cfg.OnRefresh != nil {
		c.cfg.OnRefresh(tok)
	}
	c.current.Store(&tok)

	c.logger.Info("access token refreshed", "expires_at", tok.ExpiresAt.Format(time.RFC3339))
	return tok, nil
}

// expiryFrom converts the upstream expires_at epoch to a time. Zero or
// negative values fall back to a fixed lifetime from acquiredAt.
func expiryFrom(raw int64, acquiredAt time.Time) time.Time {
	switch {
	case raw <= 0:
		return acquiredAt.Add(fallbackLifetime)
	case raw > epochMillisThreshold:
		return time.UnixMilli(raw)
	default:
		return time.Unix(raw, 0)
	}
}
