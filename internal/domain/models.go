package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Winner marks which side of a comparison wins a given row.
type Winner string

// Winner values.
const (
	WinnerA   Winner = "A"
	WinnerB   Winner = "B"
	WinnerTie Winner = "Tie"
)

// WarningType classifies a comparison-level warning.
type WarningType string

// WarningType values.
const (
	WarningNone             WarningType = "NONE"
	WarningCategoryMismatch WarningType = "CATEGORY_MISMATCH"
	WarningIdentical        WarningType = "IDENTICAL"
	WarningAPIError         WarningType = "API_ERROR"
)

// FlexString is a string that also accepts a bare JSON number when decoding.
// Model output mixes the two freely for spec values.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Warning carries a comparison-level caveat (mismatched categories, identical
// products, or a degraded/demo payload).
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
}

// ProductSpec is the per-product half of a comparison.
type ProductSpec struct {
	Category string   `json:"category"`
	Pros     []string `json:"pros"`
	Cons     []string `json:"cons"`
	Summary  string   `json:"summary"`
}

// SpecItem is one row of the unified spec table.
type SpecItem struct {
	Name   string     `json:"name"`
	ValueA FlexString `json:"valueA"`
	ValueB FlexString `json:"valueB"`
	Winner Winner     `json:"winner,omitempty"`
}

// SimulationRule is a user-supplied operating condition.
type SimulationRule struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Value FlexString `json:"value"`
	Unit  string     `json:"unit"`
}

// ExpectedResultQuery is a free-text question a simulation must answer.
type ExpectedResultQuery struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// ComparisonResult is the typed outcome of a comparison operation.
type ComparisonResult struct {
	ProductA           ProductSpec           `json:"productA"`
	ProductB           ProductSpec           `json:"productB"`
	SharedSpecs        []SpecItem            `json:"sharedSpecs"`
	Differences        []string              `json:"differences"`
	PowerWinner        Winner                `json:"powerWinner"`
	EfficiencyWinner   Winner                `json:"efficiencyWinner"`
	Verdict            string                `json:"verdict"`
	RecommendedRules   []SimulationRule      `json:"recommendedRules"`
	RecommendedQueries []ExpectedResultQuery `json:"recommendedQueries"`
	Warning            *Warning              `json:"warning,omitempty"`
}

// QuestionAnswer pairs one input query with the simulated answer.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SimulationKPI is one aggregate performance indicator.
type SimulationKPI struct {
	Name   string     `json:"name"`
	ValueA FlexString `json:"valueA"`
	ValueB FlexString `json:"valueB"`
	Winner Winner     `json:"winner"`
	Unit   string     `json:"unit,omitempty"`
}

// MetricPoint is one metric sampled for both products at a timeline event.
type MetricPoint struct {
	A    float64 `json:"A"`
	B    float64 `json:"B"`
	Unit string  `json:"unit"`
}

// TimelineEvent is one simulated time step. Metric keys should stay consistent
// across events so the series can be charted.
type TimelineEvent struct {
	Time        string                 `json:"time"`
	Description string                 `json:"description"`
	Metrics     map[string]MetricPoint `json:"metrics"`
}

// UserComment is a synthesized community-feedback entry.
type UserComment struct {
	User      string `json:"user"`
	Comment   string `json:"comment"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Sentiment string `json:"sentiment"`
}

// SimulationResult is the typed outcome of a simulation operation.
type SimulationResult struct {
	Summary         string            `json:"summary"`
	Period          string            `json:"period"`
	QuestionAnswers []QuestionAnswer  `json:"questionAnswers"`
	KPIs            []SimulationKPI   `json:"kpis"`
	UserComments    []UserComment     `json:"userComments"`
	TimelineEvents  []TimelineEvent   `json:"timelineEvents"`
	Comparison      *ComparisonResult `json:"comparison,omitempty"`
	UsedRules       []SimulationRule  `json:"usedRules,omitempty"`
	Warning         *Warning          `json:"warning,omitempty"`
}

// ProductIndex is one named parameter of a locally authored product record.
type ProductIndex struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Value FlexString `json:"value"`
}

// ProductModel is a user-authored reference record. When present for a side of
// a comparison its index names are the authoritative sharedSpecs vocabulary.
type ProductModel struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Indexes []ProductIndex `json:"indexes"`
}

// ProductSeries groups models inside a product database.
type ProductSeries struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Models      []ProductModel `json:"models"`
}

// ProductDatabase is the root of an imported or user-authored product tree.
type ProductDatabase struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Series      []ProductSeries `json:"series"`
}

// FindModel returns the first model whose name matches exactly
// (case-insensitive) across the given databases, or nil.
func FindModel(databases []ProductDatabase, name string) *ProductModel {
	if name == "" {
		return nil
	}
	for di := range databases {
		for si := range databases[di].Series {
			models := databases[di].Series[si].Models
			for mi := range models {
				if strings.EqualFold(models[mi].Name, name) {
					return &models[mi]
				}
			}
		}
	}
	return nil
}

// ActionType enumerates the UI actions the chat operation may emit.
type ActionType string

// ActionType values.
const (
	ActionNavigate          ActionType = "NAVIGATE"
	ActionSetInputs         ActionType = "SET_INPUTS"
	ActionTriggerCompare    ActionType = "TRIGGER_COMPARE"
	ActionTriggerSimulation ActionType = "TRIGGER_SIMULATION"
	ActionUpdateData        ActionType = "UPDATE_DATA"
)

// Action is a single UI instruction emitted by the chat operation. An
// UPDATE_DATA payload is always the complete replacement object, never a patch.
type Action struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatResponse is the typed outcome of the chat/control operation.
type ChatResponse struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

// HistoryKind distinguishes persisted result types.
type HistoryKind string

// HistoryKind values.
const (
	HistoryComparison HistoryKind = "COMPARISON"
	HistorySimulation HistoryKind = "SIMULATION"
)

// HistoryItem is one persisted result in the bounded history log.
type HistoryItem struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Kind      HistoryKind     `json:"type"`
	ModelA    string          `json:"modelA"`
	ModelB    string          `json:"modelB"`
	Data      json.RawMessage `json:"data"`
}
