package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMarkdown(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.WriteMarkdown("collection/title - author.md", "# Hello\n"))

	data, err := os.ReadFile(filepath.Join(dir, "collection", "title - author.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n", string(data))

	assert.True(t, m.Exists("collection/title - author.md"))
	assert.Equal(t, 1, m.WrittenCount())

	// No temp file left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "collection"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteMarkdownOverwrites(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.WriteMarkdown("a.md", "first"))
	require.NoError(t, m.WriteMarkdown("a.md", "second"))

	data, err := os.ReadFile(filepath.Join(dir, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data), "collisions are last-write-wins")
	assert.Equal(t, 1, m.WrittenCount())
}

func TestWriteMarkdownNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.WriteMarkdown("zhihu_user/My Collection_123/item.md", "body"))

	_, err = os.Stat(filepath.Join(dir, "zhihu_user", "My Collection_123", "item.md"))
	assert.NoError(t, err)
}

func TestWriteMarkdownRejectsBadPaths(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, m.WriteMarkdown("", "x"))
	assert.Error(t, m.WriteMarkdown("../escape.md", "x"))
}

func TestExistsSeesFilesFromPreviousRuns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.md"), []byte("old"), 0644))

	m, err := NewManager(dir)
	require.NoError(t, err)

	assert.True(t, m.Exists("old.md"))
	assert.False(t, m.Exists("missing.md"))
	assert.Equal(t, 0, m.WrittenCount(), "pre-existing files do not count as written this run")
}

func TestExistsPriorIgnoresThisRunsWrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.md"), []byte("old"), 0644))

	m, err := NewManager(dir)
	require.NoError(t, err)

	assert.True(t, m.ExistsPrior("old.md"))
	assert.False(t, m.ExistsPrior("missing.md"))

	require.NoError(t, m.WriteMarkdown("new.md", "body"))
	assert.False(t, m.ExistsPrior("new.md"), "files written this run are not prior")

	require.NoError(t, m.WriteMarkdown("old.md", "replaced"))
	assert.False(t, m.ExistsPrior("old.md"), "overwriting promotes the file to this run")
}
