// Package exporter provides the core functionality for exporting Zhihu
// collections to Markdown files.
//
// The exporter package orchestrates the entire export process, coordinating
// between the Zhihu API client, content resolution, Markdown rendering,
// storage management and pacing.
//
// Architecture:
//
// The Exporter struct is the main component that:
//   - Walks a collection's item pages through the Paginator
//   - Resolves each item to full content through the Resolver
//   - Renders HTML fragments to Markdown with YAML front matter
//   - Writes one .md file per item and skips files that already exist
//   - Spaces items and pages with fixed politeness delays
//   - Reports progress through a pluggable ProgressSink and Notifier
//
// Usage:
//
//	exp := exporter.New(cfg, paginator, resolver, store, log,
//	    exporter.WithProgressSink(ui.NewConsoleSink()),
//	    exporter.WithNotifier(ui.NewDesktopNotifier(true)),
//	)
//
//	run, err := exp.ExportCollection(ctx, "123456789", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("exported %d of %d items\n", run.OK, run.Processed)
//
// Pacing:
//
// Items are processed one at a time with a fixed delay between them, and a
// longer delay between pages. A full collection of a few hundred items takes
// several minutes. Individual item failures never abort the run; they are
// counted and reported in the final Run summary.
package exporter
