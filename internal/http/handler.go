// Package http exposes the engine over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/engine"
	"github.com/inducomp/aipk/internal/observability"
)

// Handler handles HTTP requests.
type Handler struct {
	engine   *engine.Engine
	resolver domain.ConfigResolver
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(eng *engine.Engine, resolver domain.ConfigResolver) *Handler {
	return &Handler{
		engine:   eng,
		resolver: resolver,
	}
}

type compareRequest struct {
	ModelA    string                   `json:"modelA"`
	ModelB    string                   `json:"modelB"`
	Language  string                   `json:"language"`
	Databases []domain.ProductDatabase `json:"databases,omitempty"`
}

type simulateRequest struct {
	ModelA     string                       `json:"modelA"`
	ModelB     string                       `json:"modelB"`
	Language   string                       `json:"language"`
	Rules      []domain.SimulationRule      `json:"rules,omitempty"`
	Queries    []domain.ExpectedResultQuery `json:"queries,omitempty"`
	Comparison *domain.ComparisonResult     `json:"comparison,omitempty"`
}

type importRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type chatRequest struct {
	Message     string          `json:"message"`
	UIState     string          `json:"uiState"`
	ModelA      string          `json:"modelA"`
	ModelB      string          `json:"modelB"`
	Language    string          `json:"language"`
	ContextData json.RawMessage `json:"contextData,omitempty"`
}

// HandleCompare processes comparison requests.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := observability.WithOperation(r.Context(), "compare")

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ModelA == "" || req.ModelB == "" {
		http.Error(w, "modelA and modelB are required", http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(ctx)
	logger.Info("comparison request received",
		observability.String("model_a", req.ModelA),
		observability.String("model_b", req.ModelB),
	)

	result, err := h.engine.Compare(ctx, engine.CompareRequest{
		ModelA:    req.ModelA,
		ModelB:    req.ModelB,
		Language:  req.Language,
		Databases: req.Databases,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}

// HandleSimulate processes simulation requests.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := observability.WithOperation(r.Context(), "simulate")

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ModelA == "" || req.ModelB == "" {
		http.Error(w, "modelA and modelB are required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Simulate(ctx, engine.SimulateRequest{
		ModelA:     req.ModelA,
		ModelB:     req.ModelB,
		Language:   req.Language,
		Rules:      req.Rules,
		Queries:    req.Queries,
		Comparison: req.Comparison,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}

// HandleImport processes manual-extraction requests.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := observability.WithOperation(r.Context(), "import")

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	database, err := h.engine.ImportManual(ctx, engine.ImportRequest{
		Text:     req.Text,
		Language: req.Language,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, database)
}

// HandleChat processes assistant conversation turns.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := observability.WithOperation(r.Context(), "chat")

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	reply, err := h.engine.Chat(ctx, engine.ChatRequest{
		Message:     req.Message,
		UIState:     req.UIState,
		ModelA:      req.ModelA,
		ModelB:      req.ModelB,
		Language:    req.Language,
		ContextData: req.ContextData,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, reply)
}

// HandleHistory returns the persisted result log, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := observability.WithOperation(r.Context(), "history")

	items, err := h.engine.History(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if items == nil {
		items = []domain.HistoryItem{}
	}

	writeJSON(ctx, w, http.StatusOK, items)
}

// HandleProviders reports the resolved active provider. The API key is never
// echoed, only whether one is present.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := h.resolver.Resolve()

	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"provider": cfg.Provider,
		"model":    cfg.Model,
		"baseURL":  cfg.BaseURL,
		"hasKey":   cfg.APIKey != "",
	})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// writeError translates the error taxonomy into HTTP status codes.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	observability.FromContext(ctx).Error("request failed", observability.Error(err))

	status := http.StatusInternalServerError

	var providerErr *domain.ProviderHTTPError
	var transportErr *domain.TransportError
	var malformedErr *domain.MalformedResponseError

	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnsupportedProvider):
		status = http.StatusBadRequest
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
	case errors.As(err, &transportErr):
		status = http.StatusGatewayTimeout
	case errors.As(err, &malformedErr):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrEmptyResponse):
		status = http.StatusBadGateway
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}
