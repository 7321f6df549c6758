// Package prompt builds provider-agnostic system/user prompt pairs for each
// engine operation. Builders are pure text composition and know nothing about
// which transport adapter executes them; that separation is what lets every
// provider family share the same four builders.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inducomp/aipk/internal/domain"
)

const (
	// UnknownValue is the sentinel the model must use where data for a side
	// cannot be found.
	UnknownValue = "Unknown"

	maxOutputTokens = 4096
)

// langText maps the UI language code to the instruction wording.
func langText(lang string) string {
	if lang == "cn" {
		return "Simplified Chinese (简体中文)"
	}
	return "English"
}

// Comparison builds the prompt pair for a two-product technical comparison.
// When a local record exists for a side, its index names become the mandatory
// sharedSpecs vocabulary and its values are ground truth; the other side is
// filled from the provider's general knowledge with the Unknown sentinel where
// data cannot be found.
func Comparison(modelA, modelB, lang string, localA, localB *domain.ProductModel) *domain.PromptRequest {
	var schemaInstruction string
	var localContext strings.Builder

	source := localA
	if source == nil {
		source = localB
	}

	if source != nil {
		names := make([]string, 0, len(source.Indexes))
		for _, idx := range source.Indexes {
			names = append(names, idx.Name)
		}
		nameList, _ := json.Marshal(names)
		schemaInstruction = fmt.Sprintf(
			"Compare using these EXACT parameters from the local database: %s. "+
				"Local values are ground truth and must be echoed verbatim. "+
				"Fill the side without local data from general knowledge; use %q where data cannot be found.",
			nameList, UnknownValue)

		if localA != nil {
			data, _ := json.Marshal(localA.Indexes)
			fmt.Fprintf(&localContext, "\nModel A Local Data: %s", data)
		}
		if localB != nil {
			data, _ := json.Marshal(localB.Indexes)
			fmt.Fprintf(&localContext, "\nModel B Local Data: %s", data)
		}
	} else {
		schemaInstruction = "Compare using 8 standard technical parameters relevant to these specific products."
	}

	system := fmt.Sprintf(`You are a specialized Industrial Comparison Engine.
Target Language: %s.
Task: Compare %s vs %s.
Rules:
1. Identify the product category. If both names refer to the same product, set warning type "IDENTICAL"; if the categories are incompatible, set warning type "CATEGORY_MISMATCH"; otherwise "NONE".
2. %s
3. Provide realistic, factual data. DO NOT HALLUCINATE.
4. Output STRICT JSON format.`, langText(lang), modelA, modelB, schemaInstruction)

	user := fmt.Sprintf(`Compare %s and %s.%s

Required JSON Structure:
{
    "productA": { "category": "String", "pros": ["String"], "cons": ["String"], "summary": "String" },
    "productB": { "category": "String", "pros": ["String"], "cons": ["String"], "summary": "String" },
    "sharedSpecs": [ { "name": "Spec Name", "valueA": "Value", "valueB": "Value", "winner": "A"|"B"|"Tie" } ],
    "differences": ["String"],
    "powerWinner": "A"|"B"|"Tie",
    "efficiencyWinner": "A"|"B"|"Tie",
    "verdict": "Conclusion",
    "recommendedRules": [ { "id": "1", "name": "Rule", "value": "100", "unit": "%%" } ],
    "recommendedQueries": [ { "id": "1", "query": "Question?" } ],
    "warning": { "type": "NONE"|"CATEGORY_MISMATCH"|"IDENTICAL", "message": "String" }
}`, modelA, modelB, localContext.String())

	return &domain.PromptRequest{
		System:      system,
		User:        user,
		Temperature: 0.2,
		MaxTokens:   maxOutputTokens,
		JSONMode:    true,
		WebSearch:   true,
	}
}
