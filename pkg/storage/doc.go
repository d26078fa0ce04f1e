// Package storage provides file management functionality for the Zhihu
// exporter.
//
// The storage package handles:
//   - Creating and managing output directories
//   - Saving Markdown files with atomic write operations
//   - Detecting files that already exist from a previous run
//   - Thread-safe file operations
//
// The Manager type is the primary interface for storage operations. It keeps
// an in-memory record of files written during the current run and provides
// atomic file writing to prevent corruption.
//
// Usage:
//
//	manager, err := storage.NewManager("exports")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	path := "zhihu_collection_123/某个回答 - 作者.md"
//	if !manager.Exists(path) {
//	    if err := manager.WriteMarkdown(path, content); err != nil {
//	        log.Printf("failed to save: %v", err)
//	    }
//	}
package storage
