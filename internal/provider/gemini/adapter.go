// Package gemini provides the native SDK adapter for the default cloud
// provider, including the optional web-search grounding tool.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/observability"
)

const providerName = "gemini"

// Options carries call-level transport settings.
type Options struct {
	Timeout time.Duration
}

// Adapter implements the domain.Adapter interface for Gemini.
type Adapter struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// New creates an adapter for one resolved provider configuration.
func New(cfg domain.ProviderConfig, opts Options) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingCredential
	}

	return &Adapter{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: opts.Timeout,
	}, nil
}

// Generate sends one generation request and returns the joined text parts.
func (a *Adapter) Generate(ctx context.Context, req *domain.PromptRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", a.wrapError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	// Search grounding and a JSON response MIME type are mutually exclusive
	// on the API; when grounding is on, the extractor handles the framing.
	switch {
	case req.WebSearch:
		model.Tools = []*genai.Tool{
			{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
		}
	case req.JSONMode:
		model.ResponseMIMEType = "application/json"
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini API",
		observability.Bool("web_search", req.WebSearch),
	)

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", a.wrapError(err)
	}

	text, err := joinTextParts(resp)
	if err != nil {
		return "", err
	}

	return text, nil
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return providerName
}

// joinTextParts concatenates the text parts of the first candidate.
func joinTextParts(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", domain.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", domain.ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	if sb.Len() == 0 {
		return "", domain.ErrEmptyResponse
	}

	return sb.String(), nil
}

// wrapError maps SDK errors onto the domain taxonomy.
func (a *Adapter) wrapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &domain.ProviderHTTPError{
			Provider: providerName,
			Status:   apiErr.Code,
			Body:     apiErr.Body,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.TransportError{
			Provider: providerName,
			Hint:     "the call exceeded the configured timeout",
			Cause:    err,
		}
	}

	return &domain.TransportError{
		Provider: providerName,
		Cause:    fmt.Errorf("gemini call failed: %w", err),
	}
}
