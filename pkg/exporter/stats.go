package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// defaultAvgSecPerItem is used before any run has been measured
	defaultAvgSecPerItem = 3.0
	// avg values outside this range indicate a degenerate measurement
	// (empty run, clock weirdness) and are discarded on load
	minAvgSecPerItem = 0.2
	maxAvgSecPerItem = 120.0
)

// Stats holds measurements persisted across runs, used to estimate how
// long the next export will take.
type Stats struct {
	CoreAvgSecPerItem float64   `json:"core_avg_sec_per_item"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StatsStore persists run statistics as a small JSON file
type StatsStore struct {
	path string
}

// NewStatsStore creates a store at path; empty path disables persistence
func NewStatsStore(path string) *StatsStore {
	return &StatsStore{path: path}
}

// Load reads the stored stats, falling back to defaults when the file is
// missing, unreadable, or holds an implausible average.
func (s *StatsStore) Load() Stats {
	stats := Stats{CoreAvgSecPerItem: defaultAvgSecPerItem}
	if s.path == "" {
		return stats
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return stats
	}
	var loaded Stats
	if err := json.Unmarshal(data, &loaded); err != nil {
		return stats
	}
	if loaded.CoreAvgSecPerItem <= minAvgSecPerItem || loaded.CoreAvgSecPerItem >= maxAvgSecPerItem {
		loaded.CoreAvgSecPerItem = defaultAvgSecPerItem
	}
	return loaded
}

// Save writes the stats; a no-op when the store has no path
func (s *StatsStore) Save(stats Stats) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}

// RecordRun folds a finished run's average into the stats, ignoring
// degenerate values per the load-time range.
func (s *StatsStore) RecordRun(avgSecPerItem float64, at time.Time) error {
	if avgSecPerItem <= minAvgSecPerItem || avgSecPerItem >= maxAvgSecPerItem {
		return nil
	}
	return s.Save(Stats{CoreAvgSecPerItem: avgSecPerItem, UpdatedAt: at})
}

// Estimate predicts the wall time for exporting itemCount items with the
// given inter-item delay
func (s *StatsStore) Estimate(itemCount int, itemDelay time.Duration) time.Duration {
	if itemCount <= 0 {
		return 0
	}
	perItem := time.Duration(s.Load().CoreAvgSecPerItem*float64(time.Second)) + itemDelay
	return time.Duration(itemCount) * perItem
}
