// Package gemini provides a minimal client for the Gemini generateContent
// API along with the request/response codec the analysis pipeline depends on.
// Each call is a single blocking request/response exchange: no retries, no
// streaming. Deadlines are the caller's responsibility via context, since the
// two pipeline stages require very different timeout policies.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client issues generateContent calls against the configured endpoint.
type Client struct {
	cfg    *Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client. The underlying http.Client carries no timeout of its
// own; callers bound each exchange through the request context.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger.With("system", "gemini"),
	}
}

// Generate performs one request/response cycle and returns the decoded raw
// text of the first candidate. The text is not yet validated as JSON; that is
// the caller's concern. Fails with ErrMissingCredential before any network
// attempt when no API key is configured, with *UpstreamError on a non-200
// status, and with ErrMalformedEnvelope when the response shape is unexpected.
func (c *Client) Generate(ctx context.Context, systemInstruction, userMessage string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrMissingCredential
	}

	body, err := json.Marshal(EncodeRequest(systemInstruction, userMessage))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	c.logger.Debug("generation complete", "model", c.cfg.Model, "bytes", len(raw))
	return DecodeText(raw)
}
