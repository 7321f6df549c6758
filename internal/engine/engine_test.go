package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/history"
	"github.com/inducomp/aipk/internal/provider/stub"
	"github.com/inducomp/aipk/internal/schema"
)

type staticResolver struct {
	cfg domain.ProviderConfig
}

func (r staticResolver) Resolve() domain.ProviderConfig { return r.cfg }

type stubRegistry struct {
	adapter domain.Adapter
	err     error
}

func (r stubRegistry) Resolve(_ context.Context, _ domain.ProviderConfig) (domain.Adapter, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.adapter, nil
}

func liveConfig() staticResolver {
	return staticResolver{cfg: domain.ProviderConfig{
		Provider: "stub",
		APIKey:   "test-key",
		Model:    "test-model",
	}}
}

func keylessConfig() staticResolver {
	return staticResolver{cfg: domain.ProviderConfig{Provider: "gemini"}}
}

func newEngine(t *testing.T, resolver domain.ConfigResolver, adapter domain.Adapter) (*Engine, *history.MemoryStore) {
	t.Helper()

	validator, err := schema.NewValidator()
	require.NoError(t, err)

	store := history.NewMemoryStore(10)
	return New(resolver, stubRegistry{adapter: adapter}, validator, store, nil), store
}

const comparisonPayload = `{
	"productA": {"category": "Inverter", "pros": ["compact"], "cons": [], "summary": "Dense design"},
	"productB": {"category": "Inverter", "pros": [], "cons": ["bulky"], "summary": "Older platform"},
	"sharedSpecs": [
		{"name": "Power", "valueA": "500 kW", "valueB": "480 kW", "winner": "A"},
		{"name": "Weight", "valueA": 320, "valueB": 295, "winner": "B"}
	],
	"differences": ["Cooling"],
	"powerWinner": "A",
	"efficiencyWinner": "Tie",
	"verdict": "A leads on power."
}`

func TestEngine_Compare(t *testing.T) {
	ctx := context.Background()

	t.Run("should decode a live comparison and record history", func(t *testing.T) {
		adapter := stub.New("```json\n"+comparisonPayload+"\n```", nil)
		eng, store := newEngine(t, liveConfig(), adapter)

		result, err := eng.Compare(ctx, CompareRequest{ModelA: "X-100", ModelB: "Y-200"})
		require.NoError(t, err)
		require.Nil(t, result.Warning)
		require.Equal(t, domain.WinnerA, result.PowerWinner)
		require.Equal(t, "A leads on power.", result.Verdict)

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, domain.HistoryComparison, items[0].Kind)
		require.Equal(t, "X-100", items[0].ModelA)
	})

	t.Run("should seed default follow-ups when the model suggests none", func(t *testing.T) {
		adapter := stub.New(comparisonPayload, nil)
		eng, _ := newEngine(t, liveConfig(), adapter)

		result, err := eng.Compare(ctx, CompareRequest{ModelA: "X-100", ModelB: "Y-200"})
		require.NoError(t, err)
		require.Len(t, result.RecommendedRules, 1)
		require.Equal(t, "Load", result.RecommendedRules[0].Name)
		require.Equal(t, domain.FlexString("100"), result.RecommendedRules[0].Value)
		require.Len(t, result.RecommendedQueries, 1)
		require.Equal(t, "Efficiency?", result.RecommendedQueries[0].Query)
	})

	t.Run("should decode numeric recommended rule values", func(t *testing.T) {
		payload := `{
			"productA": {"category": "Inverter", "summary": "s"},
			"productB": {"category": "Inverter", "summary": "s"},
			"sharedSpecs": [{"name": "Power", "valueA": "500", "valueB": "480"}],
			"verdict": "v",
			"recommendedRules": [{"id": "1", "name": "Load", "value": 100, "unit": "%"}],
			"recommendedQueries": [{"id": "1", "query": "Efficiency?"}]
		}`
		eng, _ := newEngine(t, liveConfig(), stub.New(payload, nil))

		result, err := eng.Compare(ctx, CompareRequest{ModelA: "X-100", ModelB: "Y-200"})
		require.NoError(t, err)
		require.Nil(t, result.Warning, "a bare-number rule value is valid live output, not a failure")
		require.Len(t, result.RecommendedRules, 1)
		require.Equal(t, domain.FlexString("100"), result.RecommendedRules[0].Value)
	})

	t.Run("should degrade to a labeled demo result when no key is configured", func(t *testing.T) {
		eng, store := newEngine(t, keylessConfig(), stub.New("unused", nil))

		result, err := eng.Compare(ctx, CompareRequest{ModelA: "X-100", ModelB: "Y-200"})
		require.NoError(t, err)
		require.NotNil(t, result.Warning)
		require.Equal(t, domain.WarningAPIError, result.Warning.Type)
		require.Contains(t, result.Warning.Message, "gemini")
		require.Contains(t, result.Verdict, "X-100")

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Empty(t, items, "degraded results must not be persisted")
	})

	t.Run("should degrade when the adapter fails", func(t *testing.T) {
		adapter := stub.New("", &domain.TransportError{Provider: "stub", Cause: errors.New("connection refused")})
		eng, store := newEngine(t, liveConfig(), adapter)

		result, err := eng.Compare(ctx, CompareRequest{ModelA: "X-100", ModelB: "Y-200"})
		require.NoError(t, err)
		require.NotNil(t, result.Warning)
		require.Equal(t, domain.WarningAPIError, result.Warning.Type)
		require.NotEmpty(t, result.Warning.Message)

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Empty(t, items)
	})

	t.Run("should degrade when the response is unrecoverable prose", func(t *testing.T) {
		adapter := stub.New("I'm sorry, I can't produce JSON today.", nil)
		eng, _ := newEngine(t, liveConfig(), adapter)

		result, err := eng.Compare(ctx, CompareRequest{ModelA: "X-100", ModelB: "Y-200"})
		require.NoError(t, err)
		require.NotNil(t, result.Warning)
		require.Equal(t, domain.WarningAPIError, result.Warning.Type)
	})

	t.Run("should flag spec names outside the local record vocabulary", func(t *testing.T) {
		payload := `{
			"productA": {"category": "Inverter", "summary": "s"},
			"productB": {"category": "Inverter", "summary": "s"},
			"sharedSpecs": [
				{"name": "Power", "valueA": "500", "valueB": "480"},
				{"name": "Torque", "valueA": "1", "valueB": "2"}
			],
			"verdict": "v"
		}`
		eng, _ := newEngine(t, liveConfig(), stub.New(payload, nil))

		databases := []domain.ProductDatabase{{
			Name: "Local",
			Series: []domain.ProductSeries{{
				Name: "S",
				Models: []domain.ProductModel{{
					Name:    "x-100",
					Indexes: []domain.ProductIndex{{Name: "Power"}},
				}},
			}},
		}}

		result, err := eng.Compare(ctx, CompareRequest{
			ModelA:    "X-100",
			ModelB:    "Y-200",
			Databases: databases,
		})
		require.NoError(t, err)
		require.NotNil(t, result.Warning)
		require.Contains(t, result.Warning.Message, "Torque")
		require.NotContains(t, result.Warning.Message, "Power,")
	})

	t.Run("should reject empty model names", func(t *testing.T) {
		eng, _ := newEngine(t, liveConfig(), stub.New("unused", nil))

		_, err := eng.Compare(ctx, CompareRequest{ModelA: "X-100"})
		require.Error(t, err)
	})
}

const simulationPayload = `{
	"summary": "A sustained higher output.",
	"period": "30 days",
	"questionAnswers": [
		{"question": "what is the efficiency?", "answer": "A runs at 96.5%."}
	],
	"kpis": [
		{"name": "Uptime", "valueA": "99.9", "valueB": "99.1", "winner": "A", "unit": "%"}
	],
	"timelineEvents": [
		{"time": "Day 1", "description": "start", "metrics": {"Output": {"A": 95, "B": 94, "unit": "%"}}}
	]
}`

func TestEngine_Simulate(t *testing.T) {
	ctx := context.Background()

	queries := []domain.ExpectedResultQuery{
		{ID: "q1", Query: "What is the efficiency?"},
		{ID: "q2", Query: "Which fails first?"},
	}
	rules := []domain.SimulationRule{
		{ID: "r1", Name: "Load", Value: "80", Unit: "%"},
	}

	t.Run("should realign answers to the input queries in order", func(t *testing.T) {
		eng, _ := newEngine(t, liveConfig(), stub.New(simulationPayload, nil))

		result, err := eng.Simulate(ctx, SimulateRequest{
			ModelA:  "X-100",
			ModelB:  "Y-200",
			Rules:   rules,
			Queries: queries,
		})
		require.NoError(t, err)
		require.Len(t, result.QuestionAnswers, 2)
		require.Equal(t, "What is the efficiency?", result.QuestionAnswers[0].Question)
		require.Equal(t, "A runs at 96.5%.", result.QuestionAnswers[0].Answer)
		require.Equal(t, "Which fails first?", result.QuestionAnswers[1].Question)
		require.Equal(t, notAnsweredMarker, result.QuestionAnswers[1].Answer)
	})

	t.Run("should echo the applied rules and attach the prior comparison", func(t *testing.T) {
		eng, store := newEngine(t, liveConfig(), stub.New(simulationPayload, nil))

		prior := &domain.ComparisonResult{Verdict: "A leads."}
		result, err := eng.Simulate(ctx, SimulateRequest{
			ModelA:     "X-100",
			ModelB:     "Y-200",
			Rules:      rules,
			Queries:    queries,
			Comparison: prior,
		})
		require.NoError(t, err)
		require.Equal(t, rules, result.UsedRules)
		require.NotNil(t, result.Comparison)
		require.Equal(t, "A leads.", result.Comparison.Verdict)

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, domain.HistorySimulation, items[0].Kind)
	})

	t.Run("should fall back to default rules and queries", func(t *testing.T) {
		eng, _ := newEngine(t, keylessConfig(), stub.New("unused", nil))

		result, err := eng.Simulate(ctx, SimulateRequest{ModelA: "X-100", ModelB: "Y-200"})
		require.NoError(t, err)
		require.Equal(t, DefaultRules(), result.UsedRules)
		require.Len(t, result.QuestionAnswers, 1)
		require.Equal(t, "Efficiency?", result.QuestionAnswers[0].Question)
	})

	t.Run("should degrade with an API_ERROR warning on failure", func(t *testing.T) {
		adapter := stub.New("", &domain.ProviderHTTPError{Provider: "stub", Status: 503, Body: "overloaded"})
		eng, store := newEngine(t, liveConfig(), adapter)

		result, err := eng.Simulate(ctx, SimulateRequest{
			ModelA:  "X-100",
			ModelB:  "Y-200",
			Queries: queries,
		})
		require.NoError(t, err)
		require.NotNil(t, result.Warning)
		require.Equal(t, domain.WarningAPIError, result.Warning.Type)
		require.Len(t, result.QuestionAnswers, len(queries), "demo result keeps query parity")

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Empty(t, items)
	})
}

const databasePayload = `{
	"name": "ACME Drives",
	"series": [
		{
			"name": "X Series",
			"models": [
				{"name": "X-100", "indexes": [{"name": "Power", "value": "100 kW"}]}
			]
		}
	]
}`

func TestEngine_ImportManual(t *testing.T) {
	ctx := context.Background()

	t.Run("should decode a database and assign synthetic ids", func(t *testing.T) {
		eng, _ := newEngine(t, liveConfig(), stub.New(databasePayload, nil))

		database, err := eng.ImportManual(ctx, ImportRequest{Text: "PRODUCT MANUAL ..."})
		require.NoError(t, err)
		require.Equal(t, "ACME Drives", database.Name)
		require.NotEmpty(t, database.ID)
		require.NotEmpty(t, database.Series[0].ID)
		require.NotEmpty(t, database.Series[0].Models[0].ID)
		require.NotEmpty(t, database.Series[0].Models[0].Indexes[0].ID)
	})

	t.Run("should decode numeric index values", func(t *testing.T) {
		payload := `{
			"name": "ACME Drives",
			"series": [
				{
					"name": "X Series",
					"models": [
						{"name": "X-100", "indexes": [{"name": "Power", "value": 500}]}
					]
				}
			]
		}`
		eng, _ := newEngine(t, liveConfig(), stub.New(payload, nil))

		database, err := eng.ImportManual(ctx, ImportRequest{Text: "PRODUCT MANUAL ..."})
		require.NoError(t, err)
		require.Equal(t, domain.FlexString("500"), database.Series[0].Models[0].Indexes[0].Value)
	})

	t.Run("should return ErrMissingCredential instead of fabricating data", func(t *testing.T) {
		eng, _ := newEngine(t, keylessConfig(), stub.New(databasePayload, nil))

		_, err := eng.ImportManual(ctx, ImportRequest{Text: "PRODUCT MANUAL ..."})
		require.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("should propagate malformed output as a typed error", func(t *testing.T) {
		eng, _ := newEngine(t, liveConfig(), stub.New("no JSON here", nil))

		_, err := eng.ImportManual(ctx, ImportRequest{Text: "PRODUCT MANUAL ..."})
		require.Error(t, err)

		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("should reject empty manual text", func(t *testing.T) {
		eng, _ := newEngine(t, liveConfig(), stub.New(databasePayload, nil))

		_, err := eng.ImportManual(ctx, ImportRequest{Text: "   "})
		require.Error(t, err)
	})
}

func TestEngine_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("should decode a structured reply and keep known actions", func(t *testing.T) {
		payload := `{
			"text": "Comparing now.",
			"actions": [
				{"type": "SET_INPUTS", "payload": {"modelA": "X-100", "modelB": "Y-200"}},
				{"type": "TRIGGER_COMPARE"},
				{"type": "SELF_DESTRUCT"}
			]
		}`
		eng, _ := newEngine(t, liveConfig(), stub.New(payload, nil))

		reply, err := eng.Chat(ctx, ChatRequest{Message: "compare X-100 and Y-200"})
		require.NoError(t, err)
		require.Equal(t, "Comparing now.", reply.Text)
		require.Len(t, reply.Actions, 2)
		require.Equal(t, domain.ActionSetInputs, reply.Actions[0].Type)
		require.Equal(t, domain.ActionTriggerCompare, reply.Actions[1].Type)
	})

	t.Run("should fall back to the raw text when output is not JSON", func(t *testing.T) {
		eng, _ := newEngine(t, liveConfig(), stub.New("Just a plain sentence.", nil))

		reply, err := eng.Chat(ctx, ChatRequest{Message: "hello"})
		require.NoError(t, err)
		require.Equal(t, "Just a plain sentence.", reply.Text)
		require.Empty(t, reply.Actions)
	})

	t.Run("should return a safe reply with no actions on adapter failure", func(t *testing.T) {
		adapter := stub.New("", &domain.TransportError{Provider: "stub", Cause: errors.New("timeout")})
		eng, _ := newEngine(t, liveConfig(), adapter)

		reply, err := eng.Chat(ctx, ChatRequest{Message: "hello"})
		require.NoError(t, err)
		require.NotEmpty(t, reply.Text)
		require.Empty(t, reply.Actions)
	})

	t.Run("should explain a missing credential instead of failing", func(t *testing.T) {
		eng, _ := newEngine(t, keylessConfig(), stub.New("unused", nil))

		reply, err := eng.Chat(ctx, ChatRequest{Message: "hello"})
		require.NoError(t, err)
		require.Contains(t, reply.Text, "API key")
		require.Empty(t, reply.Actions)
	})

	t.Run("should pass context data through to the model", func(t *testing.T) {
		adapter := stub.New(`{"text":"ok"}`, nil)
		eng, _ := newEngine(t, liveConfig(), adapter)

		contextData, err := json.Marshal(map[string]string{"name": "ACME"})
		require.NoError(t, err)

		_, err = eng.Chat(ctx, ChatRequest{Message: "rename it", ContextData: contextData})
		require.NoError(t, err)
		require.Contains(t, adapter.LastRequest().User, "ACME")
	})
}
