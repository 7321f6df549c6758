// Package engine orchestrates one full round trip per operation: resolve the
// provider configuration, build the prompt, call the adapter, repair and
// validate the output, and apply the per-operation fallback policy.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/extract"
	"github.com/inducomp/aipk/internal/observability"
	"github.com/inducomp/aipk/internal/prompt"
)

// notAnsweredMarker fills a simulation answer the model failed to produce.
const notAnsweredMarker = "This question was not answered by the simulation."

// Engine ties the configuration resolver, adapter registry, validator and
// history store together. Configuration is re-resolved on every call so
// settings changes take effect immediately.
type Engine struct {
	config    domain.ConfigResolver
	adapters  domain.AdapterRegistry
	validator domain.ResultValidator
	history   domain.HistoryStore
	events    domain.EventPublisher
}

// New creates an engine. The history store and event publisher may be nil.
func New(
	config domain.ConfigResolver,
	adapters domain.AdapterRegistry,
	validator domain.ResultValidator,
	history domain.HistoryStore,
	events domain.EventPublisher,
) *Engine {
	return &Engine{
		config:    config,
		adapters:  adapters,
		validator: validator,
		history:   history,
		events:    events,
	}
}

// CompareRequest holds the inputs of one comparison operation.
type CompareRequest struct {
	ModelA    string
	ModelB    string
	Language  string
	Databases []domain.ProductDatabase
}

// SimulateRequest holds the inputs of one simulation operation. Comparison,
// when supplied, is the prior comparison to embed in the result.
type SimulateRequest struct {
	ModelA     string
	ModelB     string
	Language   string
	Rules      []domain.SimulationRule
	Queries    []domain.ExpectedResultQuery
	Comparison *domain.ComparisonResult
}

// ImportRequest holds the inputs of one manual-extraction operation.
type ImportRequest struct {
	Text     string
	Language string
}

// ChatRequest holds the inputs of one chat/control operation.
type ChatRequest struct {
	Message     string
	UIState     string
	ModelA      string
	ModelB      string
	Language    string
	ContextData json.RawMessage
}

// Compare runs a product comparison. It never returns an adapter error: any
// failure degrades to a labeled demo result with warning.type API_ERROR.
func (e *Engine) Compare(ctx context.Context, req CompareRequest) (*domain.ComparisonResult, error) {
	if req.ModelA == "" || req.ModelB == "" {
		return nil, fmt.Errorf("both model names are required")
	}

	cfg := e.config.Resolve()
	ctx = observability.WithProvider(ctx, cfg.Provider)
	logger := observability.FromContext(ctx)

	localA := domain.FindModel(req.Databases, req.ModelA)
	localB := domain.FindModel(req.Databases, req.ModelB)

	if cfg.APIKey == "" {
		logger.Warn("no API key configured, returning demo comparison")
		return e.degradedComparison(ctx, req,
			fmt.Sprintf("no API key configured for provider %q", cfg.Provider)), nil
	}

	raw, err := e.generate(ctx, cfg, prompt.Comparison(req.ModelA, req.ModelB, req.Language, localA, localB))
	if err != nil {
		logger.Warn("comparison call failed", observability.Error(err))
		return e.degradedComparison(ctx, req, err.Error()), nil
	}

	payload, err := extract.JSON(raw)
	if err != nil {
		logger.Warn("comparison response unparseable", observability.Error(err))
		return e.degradedComparison(ctx, req, err.Error()), nil
	}

	if err := e.validator.ValidateComparison(payload); err != nil {
		logger.Warn("comparison response failed schema validation", observability.Error(err))
		return e.degradedComparison(ctx, req, err.Error()), nil
	}

	var result domain.ComparisonResult
	if err := json.Unmarshal(payload, &result); err != nil {
		logger.Warn("comparison response undecodable", observability.Error(err))
		return e.degradedComparison(ctx, req, err.Error()), nil
	}

	e.seedRecommendations(&result)
	e.checkVocabulary(ctx, &result, localA, localB)

	e.record(ctx, domain.HistoryComparison, req.ModelA, req.ModelB, &result)
	e.publish(ctx, "comparison.completed", map[string]interface{}{
		"model_a":  req.ModelA,
		"model_b":  req.ModelB,
		"provider": cfg.Provider,
	})

	return &result, nil
}

// Simulate runs a usage simulation. Like Compare it degrades to a labeled
// demo result instead of failing.
func (e *Engine) Simulate(ctx context.Context, req SimulateRequest) (*domain.SimulationResult, error) {
	if req.ModelA == "" || req.ModelB == "" {
		return nil, fmt.Errorf("both model names are required")
	}

	cfg := e.config.Resolve()
	ctx = observability.WithProvider(ctx, cfg.Provider)
	logger := observability.FromContext(ctx)

	rules := req.Rules
	queries := req.Queries
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if len(queries) == 0 {
		queries = DefaultQueries()
	}

	if cfg.APIKey == "" {
		logger.Warn("no API key configured, returning demo simulation")
		return e.degradedSimulation(ctx, req, rules, queries,
			fmt.Sprintf("no API key configured for provider %q", cfg.Provider)), nil
	}

	raw, err := e.generate(ctx, cfg, prompt.Simulation(req.ModelA, req.ModelB, rules, queries, req.Language))
	if err != nil {
		logger.Warn("simulation call failed", observability.Error(err))
		return e.degradedSimulation(ctx, req, rules, queries, err.Error()), nil
	}

	payload, err := extract.JSON(raw)
	if err != nil {
		logger.Warn("simulation response unparseable", observability.Error(err))
		return e.degradedSimulation(ctx, req, rules, queries, err.Error()), nil
	}

	if err := e.validator.ValidateSimulation(payload); err != nil {
		logger.Warn("simulation response failed schema validation", observability.Error(err))
		return e.degradedSimulation(ctx, req, rules, queries, err.Error()), nil
	}

	var result domain.SimulationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		logger.Warn("simulation response undecodable", observability.Error(err))
		return e.degradedSimulation(ctx, req, rules, queries, err.Error()), nil
	}

	result.QuestionAnswers = alignAnswers(queries, result.QuestionAnswers)
	result.UsedRules = rules
	result.Comparison = req.Comparison

	e.record(ctx, domain.HistorySimulation, req.ModelA, req.ModelB, &result)
	e.publish(ctx, "simulation.completed", map[string]interface{}{
		"model_a":  req.ModelA,
		"model_b":  req.ModelB,
		"provider": cfg.Provider,
	})

	return &result, nil
}

// ImportManual extracts a structured product database from pasted manual
// text. Unlike Compare and Simulate it never fabricates data: every failure
// is returned as a typed error.
func (e *Engine) ImportManual(ctx context.Context, req ImportRequest) (*domain.ProductDatabase, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("manual text is empty")
	}

	cfg := e.config.Resolve()
	ctx = observability.WithProvider(ctx, cfg.Provider)

	if cfg.APIKey == "" {
		return nil, domain.ErrMissingCredential
	}

	raw, err := e.generate(ctx, cfg, prompt.ManualExtraction(req.Text, req.Language))
	if err != nil {
		return nil, fmt.Errorf("manual extraction failed: %w", err)
	}

	payload, err := extract.JSON(raw)
	if err != nil {
		return nil, err
	}

	if err := e.validator.ValidateDatabase(payload); err != nil {
		return nil, err
	}

	var database domain.ProductDatabase
	if err := json.Unmarshal(payload, &database); err != nil {
		return nil, &domain.MalformedResponseError{Raw: string(payload), Cause: err}
	}

	assignIDs(&database)

	e.publish(ctx, "import.completed", map[string]interface{}{
		"database": database.Name,
		"series":   len(database.Series),
	})

	return &database, nil
}

// Chat runs one turn of the assistant conversation. On any failure it returns
// a safe reply with no actions instead of fabricating UI instructions.
func (e *Engine) Chat(ctx context.Context, req ChatRequest) (*domain.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is empty")
	}

	cfg := e.config.Resolve()
	ctx = observability.WithProvider(ctx, cfg.Provider)
	logger := observability.FromContext(ctx)

	if cfg.APIKey == "" {
		return safeReply(fmt.Sprintf("The AI service is not configured: no API key is set for provider %q. Please add one in the settings.", cfg.Provider)), nil
	}

	raw, err := e.generate(ctx, cfg, prompt.Chat(req.Message, req.UIState, req.ModelA, req.ModelB, req.ContextData, req.Language))
	if err != nil {
		logger.Warn("chat call failed", observability.Error(err))
		return safeReply("I could not reach the AI service just now. Please try again in a moment."), nil
	}

	var reply domain.ChatResponse
	if err := extract.Decode(raw, &reply); err != nil {
		// A plain-text answer is still a usable reply; only the action
		// channel requires structured output.
		if text := strings.TrimSpace(raw); text != "" {
			return safeReply(text), nil
		}
		return safeReply("I could not produce a usable answer. Please try rephrasing."), nil
	}

	reply.Actions = filterActions(reply.Actions)
	if reply.Text == "" {
		reply.Text = "Done."
	}

	return &reply, nil
}

// History returns the persisted result log, newest first.
func (e *Engine) History(ctx context.Context) ([]domain.HistoryItem, error) {
	if e.history == nil {
		return nil, nil
	}
	return e.history.List(ctx)
}

// generate resolves the adapter for the active provider and issues the call.
func (e *Engine) generate(ctx context.Context, cfg domain.ProviderConfig, req *domain.PromptRequest) (string, error) {
	ctx = observability.WithModel(ctx, cfg.Model)

	adapter, err := e.adapters.Resolve(ctx, cfg)
	if err != nil {
		return "", err
	}

	return adapter.Generate(ctx, req)
}

// seedRecommendations fills empty follow-up suggestions with the hard
// defaults the simulation falls back to.
func (e *Engine) seedRecommendations(result *domain.ComparisonResult) {
	if len(result.RecommendedRules) == 0 {
		result.RecommendedRules = DefaultRules()
	}
	if len(result.RecommendedQueries) == 0 {
		result.RecommendedQueries = DefaultQueries()
	}
}

// checkVocabulary flags sharedSpecs rows whose names fall outside the index
// names of the supplied local records. Local data is authoritative; the flag
// is a caveat, not a rejection.
func (e *Engine) checkVocabulary(ctx context.Context, result *domain.ComparisonResult, localA, localB *domain.ProductModel) {
	allowed := make(map[string]struct{})
	for _, local := range []*domain.ProductModel{localA, localB} {
		if local == nil {
			continue
		}
		for _, index := range local.Indexes {
			allowed[strings.ToLower(index.Name)] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return
	}

	var violations []string
	for _, item := range result.SharedSpecs {
		if _, ok := allowed[strings.ToLower(item.Name)]; !ok {
			violations = append(violations, item.Name)
		}
	}
	if len(violations) == 0 {
		return
	}

	message := fmt.Sprintf("parameters outside the local record vocabulary: %s", strings.Join(violations, ", "))
	if result.Warning != nil {
		result.Warning.Message = strings.TrimSpace(result.Warning.Message + " " + message)
	} else {
		result.Warning = &domain.Warning{Type: domain.WarningNone, Message: message}
	}

	e.publish(ctx, "comparison.vocabulary_violation", map[string]interface{}{
		"parameters": violations,
	})
}

// record appends a live result to the history log. Degraded results never
// reach this path. History failures are logged, not surfaced.
func (e *Engine) record(ctx context.Context, kind domain.HistoryKind, modelA, modelB string, result interface{}) {
	if e.history == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		observability.FromContext(ctx).Warn("failed to marshal history payload", observability.Error(err))
		return
	}

	item := domain.HistoryItem{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Kind:      kind,
		ModelA:    modelA,
		ModelB:    modelB,
		Data:      data,
	}

	if err := e.history.Append(ctx, item); err != nil {
		observability.FromContext(ctx).Warn("failed to append history item", observability.Error(err))
	}
}

func (e *Engine) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if e.events == nil {
		return
	}
	e.events.Publish(ctx, eventType, data)
}

func (e *Engine) degradedComparison(ctx context.Context, req CompareRequest, message string) *domain.ComparisonResult {
	e.publish(ctx, "comparison.degraded", map[string]interface{}{
		"model_a": req.ModelA,
		"model_b": req.ModelB,
		"reason":  message,
	})
	return DemoComparison(req.ModelA, req.ModelB, message)
}

func (e *Engine) degradedSimulation(ctx context.Context, req SimulateRequest, rules []domain.SimulationRule, queries []domain.ExpectedResultQuery, message string) *domain.SimulationResult {
	e.publish(ctx, "simulation.degraded", map[string]interface{}{
		"model_a": req.ModelA,
		"model_b": req.ModelB,
		"reason":  message,
	})

	result := DemoSimulation(req.ModelA, req.ModelB, queries, message)
	result.UsedRules = rules
	result.Comparison = req.Comparison
	return result
}

// alignAnswers forces exactly one answer per input query, in input order and
// with the input question text. Positional answers fill gaps where the model
// reworded a question.
func alignAnswers(queries []domain.ExpectedResultQuery, answers []domain.QuestionAnswer) []domain.QuestionAnswer {
	aligned := make([]domain.QuestionAnswer, len(queries))
	for i, query := range queries {
		aligned[i] = domain.QuestionAnswer{
			Question: query.Query,
			Answer:   notAnsweredMarker,
		}

		found := false
		for _, answer := range answers {
			if strings.EqualFold(strings.TrimSpace(answer.Question), strings.TrimSpace(query.Query)) {
				aligned[i].Answer = answer.Answer
				found = true
				break
			}
		}
		if !found && i < len(answers) && answers[i].Answer != "" {
			aligned[i].Answer = answers[i].Answer
		}
	}
	return aligned
}

// assignIDs gives every imported node a synthetic id when the model omitted
// one.
func assignIDs(database *domain.ProductDatabase) {
	if database.ID == "" {
		database.ID = uuid.NewString()
	}
	for si := range database.Series {
		series := &database.Series[si]
		if series.ID == "" {
			series.ID = uuid.NewString()
		}
		for mi := range series.Models {
			model := &series.Models[mi]
			if model.ID == "" {
				model.ID = uuid.NewString()
			}
			for ii := range model.Indexes {
				if model.Indexes[ii].ID == "" {
					model.Indexes[ii].ID = uuid.NewString()
				}
			}
		}
	}
}

// filterActions drops actions whose type is not part of the contract.
func filterActions(actions []domain.Action) []domain.Action {
	known := map[domain.ActionType]struct{}{
		domain.ActionNavigate:          {},
		domain.ActionSetInputs:         {},
		domain.ActionTriggerCompare:    {},
		domain.ActionTriggerSimulation: {},
		domain.ActionUpdateData:        {},
	}

	kept := actions[:0]
	for _, action := range actions {
		if _, ok := known[action.Type]; ok {
			kept = append(kept, action)
		}
	}
	return kept
}

func safeReply(text string) *domain.ChatResponse {
	return &domain.ChatResponse{Text: text}
}
