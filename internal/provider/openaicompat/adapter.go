// Package openaicompat provides a single adapter for every provider speaking
// the OpenAI chat-completions wire protocol. The compatible providers
// (chatgpt, deepseek, qwen, doubao) differ only in base URL and model
// identifier, so they are parameterized data, not separate code paths.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/observability"
)

// corsHint is surfaced on network-level failures: several of the compatible
// endpoints reject direct browser-origin calls, which shows up as an opaque
// transport error rather than an HTTP status.
const corsHint = "this endpoint may not be reachable from the current network or from a browser origin; use a proxy or a different provider"

// Options carries call-level transport settings shared by the family.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
}

// Adapter implements the domain.Adapter interface for any OpenAI-compatible
// endpoint.
type Adapter struct {
	client   openai.Client
	provider string
	model    string
}

// New creates an adapter for one resolved provider configuration.
func New(cfg domain.ProviderConfig, opts Options) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingCredential
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider %s is missing a base URL", cfg.Provider)
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	}

	if opts.Timeout > 0 {
		requestOpts = append(requestOpts, option.WithRequestTimeout(opts.Timeout))
	}

	// Bounded retry on transport errors and 5xx only; the SDK does not retry
	// client errors.
	requestOpts = append(requestOpts, option.WithMaxRetries(opts.MaxRetries))

	return &Adapter{
		client:   openai.NewClient(requestOpts...),
		provider: cfg.Provider,
		model:    cfg.Model,
	}, nil
}

// Generate sends one completion request and returns the raw message content.
func (a *Adapter) Generate(ctx context.Context, req *domain.PromptRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI-compatible API",
		observability.String("provider", a.provider),
		observability.Bool("json_mode", req.JSONMode),
	)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", a.wrapError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", domain.ErrEmptyResponse
	}

	logger.Debug("OpenAI-compatible API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider identifier this adapter was configured for.
func (a *Adapter) Name() string {
	return a.provider
}

// wrapError maps SDK errors onto the domain taxonomy: an API status becomes a
// ProviderHTTPError, anything else is network-level.
func (a *Adapter) wrapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &domain.ProviderHTTPError{
			Provider: a.provider,
			Status:   apierr.StatusCode,
			Body:     apierr.RawJSON(),
		}
	}

	return &domain.TransportError{
		Provider: a.provider,
		Hint:     corsHint,
		Cause:    err,
	}
}
