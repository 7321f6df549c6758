package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/inducomp/aipk/internal/domain"
)

// Chat builds the prompt pair for the assistant that can answer questions and
// drive the UI. The contract requires an UPDATE_DATA payload to be the
// complete merged object so the caller never has to merge untrusted partial
// structures.
func Chat(message, uiState, modelA, modelB string, contextData json.RawMessage, lang string) *domain.PromptRequest {
	system := fmt.Sprintf(`You are the built-in assistant of an industrial product comparison tool.
Target Language: %s.
You can answer questions about the data on screen and control the application by emitting actions.
Allowed action types: "NAVIGATE", "SET_INPUTS", "TRIGGER_COMPARE", "TRIGGER_SIMULATION", "UPDATE_DATA".
Rules:
1. Only emit actions the user clearly asked for.
2. An "UPDATE_DATA" payload must be the COMPLETE updated data object, never a partial patch.
3. Output STRICT JSON: { "text": "String", "actions": [ { "type": "String", "payload": {} } ] }.
4. When no action is needed, return an empty actions array.`, langText(lang))

	if len(contextData) == 0 {
		contextData = json.RawMessage("null")
	}

	user := fmt.Sprintf(`[Screen]: %s
[Model A]: %s
[Model B]: %s
[Current Data]: %s

[User Message]: %s`, uiState, modelA, modelB, contextData, message)

	return &domain.PromptRequest{
		System:      system,
		User:        user,
		Temperature: 0.3,
		MaxTokens:   maxOutputTokens,
		JSONMode:    true,
	}
}
