package history

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inducomp/aipk/internal/domain"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should return items newest first", func(t *testing.T) {
		store := NewMemoryStore(5)

		for i := 0; i < 3; i++ {
			err := store.Append(ctx, domain.HistoryItem{
				ID:        fmt.Sprintf("item-%d", i),
				Kind:      domain.HistoryComparison,
				Timestamp: int64(i),
			})
			require.NoError(t, err)
		}

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		require.Equal(t, "item-2", items[0].ID)
		require.Equal(t, "item-0", items[2].ID)
	})

	t.Run("should evict the oldest entries beyond the limit", func(t *testing.T) {
		store := NewMemoryStore(2)

		for i := 0; i < 4; i++ {
			require.NoError(t, store.Append(ctx, domain.HistoryItem{ID: fmt.Sprintf("item-%d", i)}))
		}

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "item-3", items[0].ID)
		require.Equal(t, "item-2", items[1].ID)
	})

	t.Run("should fall back to the default limit", func(t *testing.T) {
		store := NewMemoryStore(0)

		for i := 0; i < DefaultLimit+3; i++ {
			require.NoError(t, store.Append(ctx, domain.HistoryItem{ID: fmt.Sprintf("item-%d", i)}))
		}

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, DefaultLimit)
	})

	t.Run("should preserve the stored payload", func(t *testing.T) {
		store := NewMemoryStore(5)
		data, err := json.Marshal(map[string]string{"verdict": "A wins"})
		require.NoError(t, err)

		require.NoError(t, store.Append(ctx, domain.HistoryItem{
			ID:     "with-data",
			Kind:   domain.HistoryComparison,
			ModelA: "X-100",
			ModelB: "Y-200",
			Data:   data,
		}))

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Equal(t, "X-100", items[0].ModelA)
		require.JSONEq(t, `{"verdict":"A wins"}`, string(items[0].Data))
	})

	t.Run("should not let callers mutate the stored slice", func(t *testing.T) {
		store := NewMemoryStore(5)
		require.NoError(t, store.Append(ctx, domain.HistoryItem{ID: "original"}))

		items, err := store.List(ctx)
		require.NoError(t, err)
		items[0].ID = "mutated"

		again, err := store.List(ctx)
		require.NoError(t, err)
		require.Equal(t, "original", again[0].ID)
	})
}
