package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ItemRecord describes one exported item in a folder manifest
type ItemRecord struct {
	// Core identifiers
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	SourceURL string `json:"source_url"`

	// Content
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`

	// File is the Markdown file name relative to the manifest's folder
	File       string    `json:"file"`
	ExportedAt time.Time `json:"exported_at"`
}

// Manifest is the index.json written into each export folder
type Manifest struct {
	GeneratedAt time.Time    `json:"generated_at"`
	ItemCount   int          `json:"item_count"`
	Items       []ItemRecord `json:"items"`
}

// Index accumulates exported-item records grouped by folder. Safe for
// concurrent use, although the exporter feeds it serially.
type Index struct {
	mu      sync.Mutex
	folders map[string][]ItemRecord
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{folders: make(map[string][]ItemRecord)}
}

// Add records one exported item under folder. An empty folder means the
// output root.
func (i *Index) Add(folder string, rec ItemRecord) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.folders[folder] = append(i.folders[folder], rec)
}

// Records returns the records accumulated for folder
func (i *Index) Records(folder string) []ItemRecord {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]ItemRecord(nil), i.folders[folder]...)
}

// Len returns the total number of records across all folders
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, recs := range i.folders {
		n += len(recs)
	}
	return n
}

// Save writes one index.json per folder under baseDir. Folders with no
// records are left untouched.
func (i *Index) Save(baseDir string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for folder, records := range i.folders {
		if len(records) == 0 {
			continue
		}

		manifest := Manifest{
			GeneratedAt: time.Now(),
			ItemCount:   len(records),
			Items:       records,
		}

		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}

		dir := filepath.Join(baseDir, filepath.FromSlash(folder))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}

		path := filepath.Join(dir, "index.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write manifest %s: %w", path, err)
		}
	}

	return nil
}

// Load reads a previously written manifest from folder under baseDir
func Load(baseDir, folder string) (*Manifest, error) {
	path := filepath.Join(baseDir, filepath.FromSlash(folder), "index.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &manifest, nil
}
