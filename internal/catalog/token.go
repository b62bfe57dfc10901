package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	tokenRefreshMargin = 5 * time.Minute
	defaultTokenTTL    = time.Hour
	tokenMaxRetries    = 2
	tokenFlightKey     = "catalog-token"
	opToken            = "catalog.token"
)

type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenCache holds the bearer token for the catalog service and refreshes it
// shortly before it expires. Concurrent refreshes collapse into one request.
type TokenCache struct {
	creds      Credentials
	httpClient *http.Client
	now        func() time.Time
	newBackOff func() backoff.BackOff

	group singleflight.Group

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewTokenCache(creds Credentials, httpClient *http.Client) *TokenCache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenCache{
		creds:      creds,
		httpClient: httpClient,
		now:        time.Now,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), tokenMaxRetries)
		},
	}
}

// Token returns a valid bearer token, fetching a new one when the cached
// token is missing or within five minutes of expiry.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	// The refresh is shared, so it must outlive any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(tokenFlightKey, func() (interface{}, error) {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		return c.refresh(flightCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call refreshes it.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" || !c.now().Before(c.expiresAt.Add(-tokenRefreshMargin)) {
		return "", false
	}
	return c.token, true
}

func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	log := logger.FromCtx(ctx).With(zap.String("op", opToken))
	log.Info("Requesting catalog access token")

	res, err := backoff.RetryWithData(func() (tokenResponse, error) {
		return c.fetch(ctx)
	}, backoff.WithContext(c.newBackOff(), ctx))
	if err != nil {
		log.Error("Catalog token request failed", zap.Error(err))
		return "", err
	}

	ttl := time.Duration(res.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	c.mu.Lock()
	c.token = res.AccessToken
	c.expiresAt = c.now().Add(ttl)
	c.mu.Unlock()

	log.Info("Catalog access token refreshed", zap.Duration("ttl", ttl))
	return res.AccessToken, nil
}

// fetch performs one issuance attempt. Client errors and bad bodies are
// permanent; transport errors and 5xx are retried.
func (c *TokenCache) fetch(ctx context.Context) (tokenResponse, error) {
	var zero tokenResponse

	body, err := json.Marshal(tokenRequest{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		GrantType:    "client_credentials",
	})
	if err != nil {
		return zero, backoff.Permanent(apperror.UpstreamAuth(opToken, 0, "", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.TokenURL, bytes.NewReader(body))
	if err != nil {
		return zero, backoff.Permanent(apperror.UpstreamAuth(opToken, 0, "", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, apperror.UpstreamAuth(opToken, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, apperror.UpstreamAuth(opToken, resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := apperror.UpstreamAuth(opToken, resp.StatusCode, string(respBody), nil)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return zero, authErr
		}
		return zero, backoff.Permanent(authErr)
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return zero, backoff.Permanent(apperror.UpstreamAuth(opToken, resp.StatusCode, string(respBody), err))
	}
	if tr.AccessToken == "" {
		return zero, backoff.Permanent(apperror.UpstreamAuth(opToken, resp.StatusCode, string(respBody), fmt.Errorf("missing access_token")))
	}

	return tr, nil
}
