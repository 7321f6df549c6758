package prompt

import (
	"fmt"

	"github.com/inducomp/aipk/internal/domain"
)

// manualTextLimit bounds how much parsed manual text is sent to the provider.
const manualTextLimit = 15000

// ManualExtraction builds the prompt pair that turns free text from a parsed
// product manual into a database→series→model→index tree. Node ids coming back
// from the model are untrusted; the engine replaces them with synthetic ones.
func ManualExtraction(text, lang string) *domain.PromptRequest {
	if len(text) > manualTextLimit {
		text = text[:manualTextLimit]
	}

	system := fmt.Sprintf(`You are a product database extraction engine.
Target Language: %s.
Task: Extract the product database structure (series, models, and their technical index parameters) from manual text.
Output STRICT JSON only, matching:
{
  "name": "Database Name",
  "description": "String",
  "series": [
    {
      "name": "Series Name",
      "description": "String",
      "models": [
        { "name": "Model Name", "indexes": [ { "name": "Parameter", "value": "Value" } ] }
      ]
    }
  ]
}
Do not invent products that are not in the text.`, langText(lang))

	user := fmt.Sprintf("Extract from:\n%s", text)

	return &domain.PromptRequest{
		System:      system,
		User:        user,
		Temperature: 0.2,
		MaxTokens:   maxOutputTokens,
		JSONMode:    false,
	}
}
