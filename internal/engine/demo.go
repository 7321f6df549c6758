package engine

import (
	"fmt"

	"github.com/inducomp/aipk/internal/domain"
)

// DefaultRules is the hard fallback when a comparison suggested no operating
// conditions.
func DefaultRules() []domain.SimulationRule {
	return []domain.SimulationRule{
		{ID: "default-load", Name: "Load", Value: "100", Unit: "%"},
	}
}

// DefaultQueries is the hard fallback when a comparison suggested no
// follow-up questions.
func DefaultQueries() []domain.ExpectedResultQuery {
	return []domain.ExpectedResultQuery{
		{ID: "default-efficiency", Query: "Efficiency?"},
	}
}

// DemoComparison builds a clearly labeled placeholder comparison. It is
// returned when the live call failed or no credential is configured; the
// API_ERROR warning carries the failure reason so the caller can display it.
func DemoComparison(modelA, modelB, reason string) *domain.ComparisonResult {
	return &domain.ComparisonResult{
		ProductA: domain.ProductSpec{
			Category: "Demo Data",
			Pros:     []string{"Placeholder strengths, not live research"},
			Cons:     []string{"Values below are illustrative only"},
			Summary:  fmt.Sprintf("Demo profile for %s. Live research was unavailable.", modelA),
		},
		ProductB: domain.ProductSpec{
			Category: "Demo Data",
			Pros:     []string{"Placeholder strengths, not live research"},
			Cons:     []string{"Values below are illustrative only"},
			Summary:  fmt.Sprintf("Demo profile for %s. Live research was unavailable.", modelB),
		},
		SharedSpecs: []domain.SpecItem{
			{Name: "Rated Power", ValueA: "500 kW", ValueB: "480 kW", Winner: domain.WinnerA},
			{Name: "Efficiency", ValueA: "96.5 %", ValueB: "96.1 %", Winner: domain.WinnerA},
			{Name: "Weight", ValueA: "320 kg", ValueB: "295 kg", Winner: domain.WinnerB},
		},
		Differences: []string{
			"These are demo values shown because the AI service could not be reached.",
		},
		PowerWinner:      domain.WinnerA,
		EfficiencyWinner: domain.WinnerTie,
		Verdict: fmt.Sprintf(
			"Demo verdict for %s vs %s. Configure a working provider to run a live comparison.",
			modelA, modelB),
		RecommendedRules:   DefaultRules(),
		RecommendedQueries: DefaultQueries(),
		Warning: &domain.Warning{
			Type:    domain.WarningAPIError,
			Message: reason,
		},
	}
}

// DemoSimulation builds a clearly labeled placeholder simulation, answering
// every supplied query with the demo marker so query parity still holds.
func DemoSimulation(modelA, modelB string, queries []domain.ExpectedResultQuery, reason string) *domain.SimulationResult {
	answers := make([]domain.QuestionAnswer, len(queries))
	for i, query := range queries {
		answers[i] = domain.QuestionAnswer{
			Question: query.Query,
			Answer:   "Demo answer. The live simulation was unavailable.",
		}
	}

	events := make([]domain.TimelineEvent, 0, 3)
	for _, point := range []struct {
		time string
		a, b float64
	}{
		{"Day 1", 95.0, 94.0},
		{"Day 15", 96.2, 94.8},
		{"Day 30", 96.0, 94.5},
	} {
		events = append(events, domain.TimelineEvent{
			Time:        point.time,
			Description: "Demo sample point",
			Metrics: map[string]domain.MetricPoint{
				"Output": {A: point.a, B: point.b, Unit: "%"},
			},
		})
	}

	return &domain.SimulationResult{
		Summary: fmt.Sprintf(
			"Demo simulation for %s vs %s. Live simulation was unavailable.",
			modelA, modelB),
		Period:          "30 days",
		QuestionAnswers: answers,
		KPIs: []domain.SimulationKPI{
			{Name: "Average Output", ValueA: "95.7", ValueB: "94.4", Winner: domain.WinnerA, Unit: "%"},
			{Name: "Downtime", ValueA: "2", ValueB: "3", Winner: domain.WinnerA, Unit: "h"},
		},
		UserComments: []domain.UserComment{
			{
				User:      "demo-user",
				Comment:   "This entry is placeholder data, not community feedback.",
				Source:    "demo",
				Sentiment: "neutral",
			},
		},
		TimelineEvents: events,
		Warning: &domain.Warning{
			Type:    domain.WarningAPIError,
			Message: reason,
		},
	}
}
