package shop

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
	"shopsearch-be/internal/breaker"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/metrics"

	"github.com/99designs/gqlgen/graphql"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	sourceName  = "shop"
	tokenHeader = "X-Shopify-Access-Token"
)

// Client queries a tenant's product catalog over its admin GraphQL API.
type Client struct {
	apiVersion string
	httpClient *http.Client
	metrics    *metrics.Recorder

	// endpoint builds the GraphQL URL for a shop domain.
	endpoint func(shop string) string

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(apiVersion string, httpClient *http.Client, rec *metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		apiVersion: apiVersion,
		httpClient: httpClient,
		metrics:    rec,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
	c.endpoint = c.adminEndpoint
	return c
}

func (c *Client) adminEndpoint(shop string) string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion)
}

// breakerFor keeps one breaker per tenant so a failing shop does not cut
// off the others.
func (c *Client) breakerFor(shop string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[shop]
	if !ok {
		cb = breaker.New("shop:" + shop)
		c.breakers[shop] = cb
	}
	return cb
}

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// query executes doc for the session's shop and decodes the data member into
// out.
func (c *Client) query(ctx context.Context, sess Session, doc document, vars map[string]any, out any) error {
	op := "shop." + doc.operation
	log := logger.FromCtx(ctx).With(zap.String("operation", doc.operation))
	timer := metrics.StartTimer()

	err := c.do(ctx, log, op, sess, doc, vars, out)
	c.metrics.ObserveUpstream(sourceName, doc.operation, timer.Duration(), err)
	return err
}

func (c *Client) do(ctx context.Context, log *zap.Logger, op string, sess Session, doc document, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{
		Query:         doc.text,
		OperationName: doc.operation,
		Variables:     vars,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", op, err)
	}

	raw, err := c.breakerFor(sess.Shop).Execute(func() (interface{}, error) {
		return c.post(ctx, log, op, sess, body)
	})
	if err != nil {
		if breaker.IsOpen(err) {
			return apperror.UpstreamRequest(op, 0, "", err)
		}
		return err
	}

	var resp graphql.Response
	if err := json.Unmarshal(raw.([]byte), &resp); err != nil {
		log.Error("Failed decoding shop response", zap.Error(err))
		return apperror.Parse(op, err)
	}

	if len(resp.Errors) > 0 {
		log.Error("Shop returned graphql errors", zap.Error(resp.Errors))
		return apperror.UpstreamRequest(op, http.StatusOK, resp.Errors.Error(), resp.Errors)
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return apperror.Parse(op, fmt.Errorf("response carries no data"))
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		log.Error("Failed decoding shop data", zap.Error(err))
		return apperror.Parse(op, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, log *zap.Logger, op string, sess Session, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sess.Shop), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, sess.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Shop request failed", zap.Error(err))
		return nil, apperror.UpstreamRequest(op, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.UpstreamRequest(op, resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error("Shop returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return nil, apperror.UpstreamRequest(op, resp.StatusCode, string(respBody), nil)
	}
	return respBody, nil
}
