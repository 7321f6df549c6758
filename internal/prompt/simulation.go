package prompt

import (
	"fmt"
	"strings"

	"github.com/inducomp/aipk/internal/domain"
)

// Simulation builds the prompt pair for a timed operating simulation of two
// products under user-specified conditions. The contract is strict: one
// calculated answer per input query, in order, and the environmental rules
// must visibly influence metric trends across the timeline.
func Simulation(modelA, modelB string, rules []domain.SimulationRule, queries []domain.ExpectedResultQuery, lang string) *domain.PromptRequest {
	var rulesText strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&rulesText, "%s: %s %s\n", r.Name, r.Value, r.Unit)
	}

	var questionsText strings.Builder
	for i, q := range queries {
		fmt.Fprintf(&questionsText, "%d. %s\n", i+1, q.Query)
	}

	system := fmt.Sprintf(`Role: Industrial Simulation Engine.
Target Language: %s.
Objective: Simulate %s vs %s under the given operating conditions.
Instructions:
1. Adapt metrics to the product type.
2. Generate ~10 timeline events covering the full period.
3. CRITICAL: Ensure continuous tracking of key metrics (e.g. Load, Temp, Cost) across multiple events to show trends. Do not use isolated one-off metrics. The operating conditions must visibly influence the trends.
4. CRITICAL: "questionAnswers" must contain EXACTLY one entry per listed query, in the same order, repeating the question text verbatim, with a calculated (not generic) answer.
5. Output STRICT JSON.`, langText(lang), modelA, modelB)

	user := fmt.Sprintf(`[Models]: %s vs %s
[Conditions]:
%s[Queries]:
%s
Required JSON:
{
  "summary": "String",
  "period": "String",
  "questionAnswers": [ { "question": "String", "answer": "String" } ],
  "kpis": [ { "name": "String", "valueA": "Val", "valueB": "Val", "unit": "U", "winner": "A"|"B"|"Tie" } ],
  "timelineEvents": [
    { "time": "T1", "description": "Desc", "metrics": { "Metric1": { "A": 1, "B": 2, "unit": "U" } } }
  ],
  "userComments": [ { "user": "User", "comment": "String", "source": "Source", "url": "", "sentiment": "Positive"|"Negative"|"Neutral" } ]
}`, modelA, modelB, rulesText.String(), questionsText.String())

	return &domain.PromptRequest{
		System:      system,
		User:        user,
		Temperature: 0.3,
		MaxTokens:   maxOutputTokens,
		JSONMode:    true,
		WebSearch:   true,
	}
}
