package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager writes exported Markdown files under a base directory.
// Relative paths use / as the only separator; segments are expected to be
// sanitized already. Writes are atomic: data lands in a temp file that is
// renamed into place, so a crash never leaves a half-written export.
type Manager struct {
	baseDir string
	written map[string]bool
	mu      sync.RWMutex
}

// NewManager creates a new storage manager rooted at baseDir
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		baseDir: baseDir,
		written: make(map[string]bool),
	}, nil
}

// WriteMarkdown saves content at the given slash-separated relative path,
// creating intermediate directories as needed. Writing the same path twice
// overwrites: collisions are last-write-wins.
func (m *Manager) WriteMarkdown(relPath string, content string) error {
	if relPath == "" {
		return fmt.Errorf("empty relative path")
	}
	if strings.Contains(relPath, "..") {
		return fmt.Errorf("relative path escapes output directory: %s", relPath)
	}

	target := filepath.Join(m.baseDir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}

	tempFile := target + ".tmp"
	if err := os.WriteFile(tempFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.written[relPath] = true
	m.mu.Unlock()

	return nil
}

// Exists reports whether a file was written at relPath during this run or
// is already present on disk from a previous one.
func (m *Manager) Exists(relPath string) bool {
	m.mu.RLock()
	if m.written[relPath] {
		m.mu.RUnlock()
		return true
	}
	m.mu.RUnlock()

	_, err := os.Stat(filepath.Join(m.baseDir, filepath.FromSlash(relPath)))
	return err == nil
}

// ExistsPrior reports whether relPath is already on disk from a previous
// run. Files written during this run do not count, so rewriting the same
// path within a run stays last-write-wins.
func (m *Manager) ExistsPrior(relPath string) bool {
	m.mu.RLock()
	written := m.written[relPath]
	m.mu.RUnlock()
	if written {
		return false
	}

	_, err := os.Stat(filepath.Join(m.baseDir, filepath.FromSlash(relPath)))
	return err == nil
}

// BaseDir returns the base output directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// WrittenCount returns the number of files written during this run
func (m *Manager) WrittenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.written)
}
