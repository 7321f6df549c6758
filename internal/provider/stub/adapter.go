// Package stub provides a deterministic in-memory provider that returns a
// canned completion without making external API calls. It implements the
// domain.Adapter interface for development and tests.
package stub

import (
	"context"
	"sync"

	"github.com/inducomp/aipk/internal/domain"
)

const providerName = "stub"

// Adapter implements the domain.Adapter interface with a fixed response.
type Adapter struct {
	mu       sync.Mutex
	response string
	err      error
	requests []domain.PromptRequest
}

// New creates a stub adapter that returns response, or err when non-nil.
func New(response string, err error) *Adapter {
	return &Adapter{
		response: response,
		err:      err,
	}
}

// Generate records the request and returns the canned response.
func (a *Adapter) Generate(ctx context.Context, req *domain.PromptRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.requests = append(a.requests, *req)
	a.mu.Unlock()

	if a.err != nil {
		return "", a.err
	}
	return a.response, nil
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string {
	return providerName
}

// Requests returns a copy of every request seen so far.
func (a *Adapter) Requests() []domain.PromptRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.PromptRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (a *Adapter) LastRequest() *domain.PromptRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.requests) == 0 {
		return nil
	}
	last := a.requests[len(a.requests)-1]
	return &last
}
