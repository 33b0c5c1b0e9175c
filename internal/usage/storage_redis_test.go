package usage

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisStorageRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	storage, err := NewRedisStorage(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	ctx := context.Background()

	// Empty key loads fresh stats.
	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, loaded.TotalRequests)
	require.NotNil(t, loaded.Models)

	stats := NewStats()
	stats.apply(Record{
		Timestamp: time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC),
		Protocol:  "gemini",
		Model:     "gemini-2.5-flash",
		Success:   true,
		Tokens:    Tokens{Prompt: 5, Completion: 5, Total: 10},
	})
	require.NoError(t, storage.Save(ctx, stats))

	loaded, err = storage.Load(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, loaded.TotalRequests)
	require.EqualValues(t, 10, loaded.TotalTokens)
	require.Contains(t, loaded.Models, "gemini-2.5-flash")
}

func TestRedisStorageOverwrite(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	storage, err := NewRedisStorage(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	ctx := context.Background()

	first := NewStats()
	first.TotalRequests = 1
	require.NoError(t, storage.Save(ctx, first))

	second := NewStats()
	second.TotalRequests = 7
	require.NoError(t, storage.Save(ctx, second))

	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 7, loaded.TotalRequests)
}

func TestRedisStorageUnreachable(t *testing.T) {
	_, err := NewRedisStorage("127.0.0.1:1", "", 0)
	require.Error(t, err)
}
