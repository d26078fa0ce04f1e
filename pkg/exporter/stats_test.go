package exporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	store := NewStatsStore(path)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, store.RecordRun(4.5, now))

	loaded := store.Load()
	assert.Equal(t, 4.5, loaded.CoreAvgSecPerItem)
	assert.True(t, loaded.UpdatedAt.Equal(now))
}

func TestStatsDefaultsWhenMissing(t *testing.T) {
	store := NewStatsStore(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, defaultAvgSecPerItem, store.Load().CoreAvgSecPerItem)
}

func TestStatsImplausibleValuesDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	// Degenerate measurements are refused at record time.
	store := NewStatsStore(path)
	require.NoError(t, store.RecordRun(0.05, time.Now()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.RecordRun(500, time.Now()))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// And filtered again at load time in case the file was hand-edited.
	require.NoError(t, os.WriteFile(path, []byte(`{"core_avg_sec_per_item": 9000}`), 0644))
	assert.Equal(t, defaultAvgSecPerItem, store.Load().CoreAvgSecPerItem)
}

func TestStatsCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	assert.Equal(t, defaultAvgSecPerItem, NewStatsStore(path).Load().CoreAvgSecPerItem)
}

func TestStatsEstimate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	store := NewStatsStore(path)
	require.NoError(t, store.RecordRun(2, time.Now()))

	// 10 items at 2s core + 1.2s delay each.
	assert.Equal(t, 32*time.Second, store.Estimate(10, 1200*time.Millisecond))
	assert.Equal(t, time.Duration(0), store.Estimate(0, time.Second))
}

func TestStatsEmptyPathDisablesPersistence(t *testing.T) {
	store := NewStatsStore("")
	require.NoError(t, store.RecordRun(5, time.Now()))
	assert.Equal(t, defaultAvgSecPerItem, store.Load().CoreAvgSecPerItem)
}
