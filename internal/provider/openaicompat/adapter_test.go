package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inducomp/aipk/internal/domain"
)

func testConfig(baseURL string) domain.ProviderConfig {
	return domain.ProviderConfig{
		Provider: "deepseek",
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Model:    "deepseek-chat",
	}
}

func completionBody(content string) string {
	payload := map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "deepseek-chat",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 5,
			"total_tokens":      15,
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestAdapter_Generate(t *testing.T) {
	t.Run("should send the bearer key and return the message content", func(t *testing.T) {
		var gotBody map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
			require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completionBody(`{"verdict": "A"}`)))
		}))
		defer server.Close()

		adapter, err := New(testConfig(server.URL), Options{Timeout: 5 * time.Second})
		require.NoError(t, err)

		text, err := adapter.Generate(context.Background(), &domain.PromptRequest{
			System:      "You are a comparison engine.",
			User:        "Compare X and Y.",
			Temperature: 0.2,
			MaxTokens:   4096,
		})
		require.NoError(t, err)
		require.Equal(t, `{"verdict": "A"}`, text)
		require.Equal(t, "deepseek-chat", gotBody["model"])

		messages, ok := gotBody["messages"].([]interface{})
		require.True(t, ok)
		require.Len(t, messages, 2)
	})

	t.Run("should request a JSON object response in JSON mode", func(t *testing.T) {
		var gotBody map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completionBody("{}")))
		}))
		defer server.Close()

		adapter, err := New(testConfig(server.URL), Options{Timeout: 5 * time.Second})
		require.NoError(t, err)

		_, err = adapter.Generate(context.Background(), &domain.PromptRequest{
			User:     "output JSON",
			JSONMode: true,
		})
		require.NoError(t, err)

		format, ok := gotBody["response_format"].(map[string]interface{})
		require.True(t, ok, "response_format must be present in JSON mode")
		require.Equal(t, "json_object", format["type"])
	})

	t.Run("should map an API status to ProviderHTTPError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
		}))
		defer server.Close()

		adapter, err := New(testConfig(server.URL), Options{Timeout: 5 * time.Second})
		require.NoError(t, err)

		_, err = adapter.Generate(context.Background(), &domain.PromptRequest{User: "hi"})
		require.Error(t, err)

		var httpErr *domain.ProviderHTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusUnauthorized, httpErr.Status)
		require.Equal(t, "deepseek", httpErr.Provider)
	})

	t.Run("should wrap connection failures as TransportError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		baseURL := server.URL
		server.Close()

		adapter, err := New(testConfig(baseURL), Options{Timeout: time.Second})
		require.NoError(t, err)

		_, err = adapter.Generate(context.Background(), &domain.PromptRequest{User: "hi"})
		require.Error(t, err)

		var transportErr *domain.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.NotEmpty(t, transportErr.Hint)
	})

	t.Run("should surface an empty choice list as ErrEmptyResponse", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
		}))
		defer server.Close()

		adapter, err := New(testConfig(server.URL), Options{Timeout: 5 * time.Second})
		require.NoError(t, err)

		_, err = adapter.Generate(context.Background(), &domain.PromptRequest{User: "hi"})
		require.ErrorIs(t, err, domain.ErrEmptyResponse)
	})
}

func TestNew(t *testing.T) {
	t.Run("should require an API key", func(t *testing.T) {
		_, err := New(domain.ProviderConfig{Provider: "chatgpt", BaseURL: "https://api.openai.com/v1"}, Options{})
		require.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("should require a base URL", func(t *testing.T) {
		_, err := New(domain.ProviderConfig{Provider: "chatgpt", APIKey: "k"}, Options{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "base URL")
	})

	t.Run("should carry the provider identifier through Name", func(t *testing.T) {
		adapter, err := New(testConfig("https://api.deepseek.com"), Options{})
		require.NoError(t, err)
		require.Equal(t, "deepseek", adapter.Name())
	})
}
