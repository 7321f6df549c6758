// Package anthropic provides an adapter for the Anthropic messages protocol.
// The protocol has its own header scheme (x-api-key plus an explicit API
// version header) and response shape (content[0].text), so it cannot share
// the OpenAI-compatible adapter.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/observability"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion      = "2023-06-01"

	corsHint = "the Anthropic API cannot be called directly from a browser; route the call through a backend or proxy"
)

// Options carries call-level transport settings.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
}

// Adapter implements the domain.Adapter interface for the Anthropic messages
// protocol.
type Adapter struct {
	apiKey     string
	endpoint   string
	model      string
	maxRetries int
	httpClient *http.Client
}

// New creates an adapter for one resolved provider configuration.
func New(cfg domain.ProviderConfig, opts Options) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingCredential
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &Adapter{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		model:      cfg.Model,
		maxRetries: opts.MaxRetries,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}, nil
}

// Messages API request/response structures.
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends one messages request and returns the raw text content.
func (a *Adapter) Generate(ctx context.Context, req *domain.PromptRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body := messagesRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.User}},
		Temperature: req.Temperature,
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic API")

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		text, retryable, callErr := a.call(ctx, reqBody)
		if callErr == nil {
			return text, nil
		}
		lastErr = callErr
		if !retryable || ctx.Err() != nil {
			break
		}
		logger.Warn("Anthropic call failed, retrying once", observability.Error(callErr))
	}

	return "", lastErr
}

// call performs one HTTP round trip. The second return value reports whether
// a retry is worthwhile (transport failures and 5xx only).
func (a *Adapter) call(ctx context.Context, reqBody []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.endpoint,
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		transportErr := &domain.TransportError{
			Provider: a.Name(),
			Hint:     corsHint,
			Cause:    err,
		}
		return "", true, transportErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		httpErr := &domain.ProviderHTTPError{
			Provider: a.Name(),
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
		return "", httpErr.Retryable(), httpErr
	}

	var parsed messagesResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&parsed); decodeErr != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", false, domain.ErrEmptyResponse
	}

	return parsed.Content[0].Text, false, nil
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return "claude"
}
