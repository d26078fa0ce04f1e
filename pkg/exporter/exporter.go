package exporter

import (
	"context"
	"fmt"
	"time"

	"zhexport/pkg/config"
	"zhexport/pkg/logger"
	"zhexport/pkg/markdown"
	"zhexport/pkg/metadata"
	"zhexport/pkg/ratelimit"
	"zhexport/pkg/sanitize"
	"zhexport/pkg/storage"
	"zhexport/pkg/zhihu"
)

// Run holds the counters of one finished export
type Run struct {
	ScopeLabel string
	Processed  int
	Total      int
	OK         int
	Failed     int
	Elapsed    time.Duration
	// AvgSecPerItem is the measured processing time per item with the
	// fixed pacing delays subtracted out
	AvgSecPerItem float64
}

// Exporter walks collections and writes one Markdown file per saved item.
// Items are processed strictly sequentially in listing order; a single
// item's failure is counted and the run moves on.
type Exporter struct {
	paginator *zhihu.Paginator
	resolver  *zhihu.Resolver
	store     *storage.Manager
	stats     *StatsStore
	index     *metadata.Index
	progress  ProgressSink
	notifier  Notifier
	pacer     ratelimit.Pacer
	cfg       *config.Config
	log       logger.Logger
	now       func() time.Time
}

// Option customizes an Exporter
type Option func(*Exporter)

// WithProgressSink directs progress events at sink
func WithProgressSink(sink ProgressSink) Option {
	return func(e *Exporter) { e.progress = sink }
}

// WithNotifier directs user notifications at n
func WithNotifier(n Notifier) Option {
	return func(e *Exporter) { e.notifier = n }
}

// WithPacer replaces the inter-item delay implementation, mainly for tests
func WithPacer(p ratelimit.Pacer) Option {
	return func(e *Exporter) { e.pacer = p }
}

// WithClock replaces the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithStats attaches a persistent stats store
func WithStats(s *StatsStore) Option {
	return func(e *Exporter) { e.stats = s }
}

// New creates an exporter over already-constructed collaborators
func New(cfg *config.Config, paginator *zhihu.Paginator, resolver *zhihu.Resolver, store *storage.Manager, log logger.Logger, opts ...Option) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	e := &Exporter{
		paginator: paginator,
		resolver:  resolver,
		store:     store,
		stats:     NewStatsStore(cfg.Output.StatsFile),
		progress:  NopSink{},
		notifier:  NopNotifier{},
		pacer:     &ratelimit.SleepPacer{},
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
	if cfg.Output.WriteIndex {
		e.index = metadata.NewIndex()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate predicts how long exporting itemCount items will take, based on
// measurements from previous runs
func (e *Exporter) Estimate(itemCount int) time.Duration {
	return e.stats.Estimate(itemCount, e.cfg.Pacing.ItemDelay)
}

// ExportCollection exports one collection. A positive limit caps how many
// items are taken; zero means everything.
func (e *Exporter) ExportCollection(ctx context.Context, collectionID string, limit int) (*Run, error) {
	scope := "collection " + collectionID
	if meta, err := e.paginator.CollectionMeta(ctx, collectionID); err == nil && meta.Title != "" {
		scope = fmt.Sprintf("collection %q", meta.Title)
	}

	items, err := e.paginator.Items(ctx, collectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collectionID, err)
	}

	folder := ""
	if e.cfg.Output.CreateCollectionFolders {
		folder = sanitize.Path("zhihu_collection_" + collectionID)
	}

	run := &Run{ScopeLabel: scope, Total: len(items)}
	e.emit(ProgressEvent{ScopeLabel: scope, Stage: StageStart, Total: run.Total})
	e.notifier.ShowOrUpdate("Zhihu export started", fmt.Sprintf("%s: %d items", scope, run.Total))

	start := e.now()
	// Single-collection runs notify on every item.
	e.exportItems(ctx, run, folder, "", items, func(int) bool { return true })
	e.finishRun(run, start)

	return run, ctx.Err()
}

// ExportAllCollections exports every collection of a user. The grand total
// grows as collections are enumerated; each increase is announced through
// the progress sink.
func (e *Exporter) ExportAllCollections(ctx context.Context, urlToken string) (*Run, error) {
	scope := fmt.Sprintf("all collections of %s", urlToken)

	collections, err := e.paginator.Collections(ctx, urlToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections of %s: %w", urlToken, err)
	}

	run := &Run{ScopeLabel: scope}
	e.emit(ProgressEvent{ScopeLabel: scope, Stage: StageStart})
	e.notifier.ShowOrUpdate("Zhihu export started", fmt.Sprintf("%s: %d collections", scope, len(collections)))

	throttle := NewThrottler(e.cfg.Notifications.EveryN, e.cfg.Notifications.MinInterval)
	start := e.now()

	for _, col := range collections {
		if ctx.Err() != nil {
			break
		}

		items, err := e.paginator.Items(ctx, col.ID.String(), 0)
		if err != nil {
			e.log.ErrorWithFields("failed to list collection items", map[string]interface{}{
				"collection_id": col.ID.String(),
				"error":         err.Error(),
			})
			continue
		}

		run.Total += len(items)
		e.emit(ProgressEvent{
			ScopeLabel: scope,
			Stage:      StageProgress,
			Processed:  run.Processed,
			Total:      run.Total,
			OK:         run.OK,
			Failed:     run.Failed,
			Collection: col.Title,
		})

		folder := ""
		if e.cfg.Output.CreateCollectionFolders {
			title := col.Title
			if title == "" {
				title = col.ID.String()
			}
			folder = sanitize.Path(fmt.Sprintf("zhihu_%s/%s_%s", urlToken, title, col.ID))
		}

		e.exportItems(ctx, run, folder, col.Title, items, throttle.ShouldNotify)

		if e.cfg.Pacing.CollectionDelay > 0 && ctx.Err() == nil {
			if err := e.pacer.Pause(ctx, e.cfg.Pacing.CollectionDelay); err != nil {
				break
			}
		}
	}

	e.finishRun(run, start)
	return run, ctx.Err()
}

// exportItems runs the per-item loop, mutating run's counters in place
func (e *Exporter) exportItems(ctx context.Context, run *Run, folder, collection string, items []zhihu.CollectionItem, shouldNotify func(int) bool) {
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}

		name, file, err := e.exportOne(ctx, folder, item)
		run.Processed++
		if err != nil {
			run.Failed++
			e.log.WarnWithFields("item export failed", map[string]interface{}{
				"item_id":   item.Content.ID.String(),
				"item_type": item.Content.Type,
				"error":     err.Error(),
			})
		} else {
			run.OK++
		}

		e.emit(ProgressEvent{
			ScopeLabel: run.ScopeLabel,
			Stage:      StageProgress,
			Processed:  run.Processed,
			Total:      run.Total,
			OK:         run.OK,
			Failed:     run.Failed,
			Collection: collection,
			LastItem:   name,
			LastFile:   file,
		})
		if shouldNotify(run.Processed) {
			e.notifier.ShowOrUpdate("Zhihu export progress",
				fmt.Sprintf("%s: %d/%d (ok %d, failed %d)", run.ScopeLabel, run.Processed, run.Total, run.OK, run.Failed))
		}

		if e.cfg.Pacing.ItemDelay > 0 && ctx.Err() == nil {
			if err := e.pacer.Pause(ctx, e.cfg.Pacing.ItemDelay); err != nil {
				return
			}
		}
	}
}

// exportOne resolves, renders and writes a single item, returning the item
// label and the file path it went to
func (e *Exporter) exportOne(ctx context.Context, folder string, item zhihu.CollectionItem) (string, string, error) {
	doc, err := e.resolver.Resolve(ctx, item)
	if err != nil {
		return item.Content.WebURL(), "", err
	}

	body, err := markdown.RenderHTML(doc.BodyHTML, markdown.Options{
		BaseURL:       doc.SourceURL,
		MaxImageWidth: e.cfg.Render.MaxImageWidth,
	})
	if err != nil {
		return doc.Title, "", fmt.Errorf("failed to render %s: %w", doc.SourceURL, err)
	}
	if doc.Kind == zhihu.KindVideo {
		body = videoMetaBlock(doc) + body
	}

	fm := markdown.NewFrontMatter(doc.Title, doc.Author, doc.SourceURL, e.now())
	content := fm.Compose(body)

	base := doc.Title
	if doc.Author != "" {
		base = doc.Title + " - " + doc.Author
	}
	name := sanitize.Segment(base, sanitize.DefaultMaxLen) + ".md"
	file := name
	if folder != "" {
		file = folder + "/" + name
	}

	if e.cfg.Output.SkipExisting && e.store.ExistsPrior(file) {
		e.log.DebugWithFields("file exists from previous run, skipping", map[string]interface{}{
			"file": file,
		})
	} else if err := e.store.WriteMarkdown(file, content); err != nil {
		return base, file, err
	}
	if e.index != nil {
		e.index.Add(folder, metadata.ItemRecord{
			ID:         item.Content.ID.String(),
			Kind:       doc.Kind.String(),
			SourceURL:  doc.SourceURL,
			Title:      doc.Title,
			Author:     doc.Author,
			File:       name,
			ExportedAt: e.now(),
		})
	}
	return base, file, nil
}

// videoMetaBlock renders the metadata a video post has instead of a body
func videoMetaBlock(doc *zhihu.Document) string {
	block := ""
	if ts := doc.DisplayTime(); ts != "" {
		block += "Published: " + ts
		if doc.Location != "" {
			block += " · " + doc.Location
		}
		block += "\n\n"
	} else if doc.Location != "" {
		block += "Location: " + doc.Location + "\n\n"
	}
	if doc.CoverURL != "" {
		block += fmt.Sprintf("![](%s)\n\n", doc.CoverURL)
	}
	block += fmt.Sprintf("[Watch on Zhihu](%s)\n\n", doc.SourceURL)
	return block
}

// finishRun computes the run's timing, emits the final snapshot, and
// persists the measured average for future estimates
func (e *Exporter) finishRun(run *Run, start time.Time) {
	run.Elapsed = e.now().Sub(start)

	if run.Processed > 0 {
		pacing := time.Duration(run.Processed) * e.cfg.Pacing.ItemDelay
		core := run.Elapsed - pacing
		if core < 0 {
			core = 0
		}
		run.AvgSecPerItem = core.Seconds() / float64(run.Processed)
	}

	e.emit(ProgressEvent{
		ScopeLabel: run.ScopeLabel,
		Stage:      StageDone,
		Processed:  run.Processed,
		Total:      run.Total,
		OK:         run.OK,
		Failed:     run.Failed,
	})
	e.notifier.ShowOrUpdate("Zhihu export finished",
		fmt.Sprintf("%s: %d ok, %d failed", run.ScopeLabel, run.OK, run.Failed))
	if clearAfter := e.cfg.Notifications.ClearAfter; clearAfter > 0 {
		time.AfterFunc(clearAfter, e.notifier.Clear)
	}

	if e.index != nil {
		if err := e.index.Save(e.store.BaseDir()); err != nil {
			e.log.WarnWithFields("failed to write export manifests", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if err := e.stats.RecordRun(run.AvgSecPerItem, e.now()); err != nil {
		e.log.WarnWithFields("failed to persist run stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	e.log.InfoWithFields("export finished", map[string]interface{}{
		"scope":     run.ScopeLabel,
		"processed": run.Processed,
		"ok":        run.OK,
		"failed":    run.Failed,
		"elapsed":   run.Elapsed,
	})
}

// emit delivers a progress event, never letting a sink failure surface
func (e *Exporter) emit(ev ProgressEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.log.DebugWithFields("progress sink panicked", map[string]interface{}{
				"recovered": fmt.Sprint(r),
			})
		}
	}()
	e.progress.Emit(ev)
}
