package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/provider/stub"
)

func TestRegistry_Resolve(t *testing.T) {
	t.Run("should resolve a registered provider", func(t *testing.T) {
		r := New()
		r.Register("stub", func(cfg domain.ProviderConfig) (domain.Adapter, error) {
			return stub.New(`{"ok":true}`, nil), nil
		})

		adapter, err := r.Resolve(context.Background(), domain.ProviderConfig{Provider: "stub"})
		require.NoError(t, err)
		require.Equal(t, "stub", adapter.Name())
	})

	t.Run("should return ErrUnsupportedProvider for unknown identifiers", func(t *testing.T) {
		r := New()

		_, err := r.Resolve(context.Background(), domain.ProviderConfig{Provider: "grok"})
		require.ErrorIs(t, err, domain.ErrUnsupportedProvider)
		require.Contains(t, err.Error(), "grok")
	})

	t.Run("should propagate factory errors", func(t *testing.T) {
		r := New()
		r.Register("broken", func(cfg domain.ProviderConfig) (domain.Adapter, error) {
			return nil, domain.ErrMissingCredential
		})

		_, err := r.Resolve(context.Background(), domain.ProviderConfig{Provider: "broken"})
		require.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("should replace the factory on re-registration", func(t *testing.T) {
		r := New()
		r.Register("stub", func(cfg domain.ProviderConfig) (domain.Adapter, error) {
			return nil, errors.New("old factory")
		})
		r.Register("stub", func(cfg domain.ProviderConfig) (domain.Adapter, error) {
			return stub.New("new", nil), nil
		})

		adapter, err := r.Resolve(context.Background(), domain.ProviderConfig{Provider: "stub"})
		require.NoError(t, err)
		require.NotNil(t, adapter)
	})
}

func TestRegistry_Default(t *testing.T) {
	t.Run("should register every supported provider", func(t *testing.T) {
		r := Default(Options{Timeout: time.Second, MaxRetries: 1})

		names := r.Names()
		require.ElementsMatch(t,
			[]string{"gemini", "claude", "chatgpt", "deepseek", "qwen", "doubao"},
			names,
		)
	})

	t.Run("should refuse configurations without a credential", func(t *testing.T) {
		r := Default(Options{Timeout: time.Second})

		for _, provider := range []string{"gemini", "claude", "chatgpt"} {
			_, err := r.Resolve(context.Background(), domain.ProviderConfig{
				Provider: provider,
				BaseURL:  "https://example.com",
				Model:    "m",
			})
			require.ErrorIs(t, err, domain.ErrMissingCredential, provider)
		}
	})
}
