package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/breaker"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	sourceName    = "global"
	opCall        = "catalog.call"
	rpcVersion    = "2.0"
	rpcMethodCall = "tools/call"
)

// TokenSource supplies bearer tokens for the catalog service.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// invalidator is implemented by token sources that can drop a rejected token.
type invalidator interface {
	Invalidate()
}

type Client struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Recorder
	nextID     atomic.Int64
}

func NewClient(endpoint string, tokens TokenSource, httpClient *http.Client, rec *metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		endpoint:   endpoint,
		tokens:     tokens,
		httpClient: httpClient,
		breaker:    breaker.New("catalog"),
		metrics:    rec,
	}
	c.nextID.Store(time.Now().UnixMilli())
	return c
}

// ----------------- Envelope -----------------

type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	ID      int64      `json:"id"`
	Params  toolParams `json:"params"`
}

type toolParams struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

type rpcResponse struct {
	Result *toolResult     `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

type toolContent struct {
	Type string          `json:"type"`
	Text json.RawMessage `json:"text"`
}

// ----------------- Call -----------------

// Call invokes a catalog tool and returns the JSON document embedded in the
// first content item. A nil result means the tool answered with no content.
func (c *Client) Call(ctx context.Context, tool string, args any) (json.RawMessage, error) {
	log := logger.FromCtx(ctx).With(zap.String("tool", tool))
	timer := metrics.StartTimer()

	payload, err := c.call(ctx, log, tool, args)
	c.metrics.ObserveUpstream(sourceName, tool, timer.Duration(), err)
	return payload, err
}

func (c *Client) call(ctx context.Context, log *zap.Logger, tool string, args any) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog token: %w", err)
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: rpcVersion,
		Method:  rpcMethodCall,
		ID:      c.nextID.Add(1),
		Params:  toolParams{Name: tool, Arguments: args},
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", tool, err)
	}

	log.Info("Sending catalog tool call")

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, log, token, body)
	})
	if err != nil {
		if breaker.IsOpen(err) {
			return nil, apperror.UpstreamRequest(opCall, 0, "", err)
		}
		return nil, err
	}

	var envelope rpcResponse
	if err := json.Unmarshal(out.([]byte), &envelope); err != nil {
		log.Error("Failed decoding catalog envelope", zap.Error(err))
		return nil, apperror.Parse(opCall, err)
	}

	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		log.Error("Catalog returned application error", zap.ByteString("error", envelope.Error))
		return nil, apperror.UpstreamRequest(opCall, http.StatusOK, string(envelope.Error), nil)
	}

	if envelope.Result == nil || len(envelope.Result.Content) == 0 {
		return nil, nil
	}

	first := envelope.Result.Content[0]
	if envelope.Result.IsError {
		return nil, apperror.UpstreamRequest(opCall, http.StatusOK, string(first.Text), nil)
	}

	payload, err := decodeEmbedded(first.Text)
	if err != nil {
		log.Error("Failed decoding embedded catalog payload", zap.Error(err))
		return nil, apperror.Parse(opCall, err)
	}
	return payload, nil
}

func (c *Client) post(ctx context.Context, log *zap.Logger, token string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Catalog request failed", zap.Error(err))
		return nil, apperror.UpstreamRequest(opCall, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read catalog response body", zap.Error(err))
		return nil, apperror.UpstreamRequest(opCall, resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error("Catalog returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		if resp.StatusCode == http.StatusUnauthorized {
			if inv, ok := c.tokens.(invalidator); ok {
				inv.Invalidate()
			}
		}
		return nil, apperror.UpstreamRequest(opCall, resp.StatusCode, string(respBody), nil)
	}

	return respBody, nil
}

// decodeEmbedded unwraps the tool payload. Upstream usually sends a JSON
// document serialized into a string; an inline object is accepted as is.
func decodeEmbedded(text json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		inner := bytes.TrimSpace([]byte(s))
		if !json.Valid(inner) {
			return nil, errors.New("embedded text is not a JSON document")
		}
		return inner, nil
	}

	if !json.Valid(trimmed) {
		return nil, errors.New("content is not valid JSON")
	}
	return trimmed, nil
}
