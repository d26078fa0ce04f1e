package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"zhexport/pkg/auth"
	"zhexport/pkg/config"
	"zhexport/pkg/exporter"
	"zhexport/pkg/logger"
	"zhexport/pkg/ratelimit"
	"zhexport/pkg/retry"
	"zhexport/pkg/storage"
	"zhexport/pkg/ui"
	"zhexport/pkg/ui/tui"
	"zhexport/pkg/zhihu"
)

var (
	// Export command flags
	outputDir     string
	itemLimit     int
	accountName   string
	itemDelay     time.Duration
	maxImageWidth int
	maxRetries    int
	statsFile     string
	useTUI        bool
)

// exportCmd groups the export subcommands
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export Zhihu collections to Markdown",
	Long: `Export the contents of Zhihu favorites collections to local Markdown files.

Each collected item becomes one .md file with YAML front matter. Items are
processed one at a time with a fixed delay between them; a full collection
of a few hundred items takes several minutes by design.

Valid Zhihu credentials are required, configured through:
  - Stored cookies (use 'zhexport auth login' to store)
  - The ZHEXPORT_COOKIE environment variable
  - A configuration file`,
}

// exportCollectionCmd exports a single collection
var exportCollectionCmd = &cobra.Command{
	Use:   "collection <id-or-url>",
	Short: "Export a single collection",
	Long: `Export one favorites collection, identified by its numeric ID or its URL.

The exported files are written into a folder named after the collection ID
inside the output directory.`,
	Example: `  # Export by collection ID
  zhexport export collection 123456789

  # Export by URL
  zhexport export collection https://www.zhihu.com/collection/123456789

  # Export only the first 50 items
  zhexport export collection 123456789 --limit 50

  # Export with the interactive terminal UI
  zhexport export collection 123456789 --tui`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runExportCollection(args[0])
		return nil
	},
}

// exportAllCmd exports every collection of a user
var exportAllCmd = &cobra.Command{
	Use:   "all <user-or-url>",
	Short: "Export every collection of a user",
	Long: `Export all favorites collections of a Zhihu user, identified by their
url_token or profile URL.

Each collection gets its own subfolder under a folder named after the user.
Private collections are included when the stored cookie belongs to that user.`,
	Example: `  # Export all collections by url_token
  zhexport export all someuser

  # Export all collections by profile URL
  zhexport export all https://www.zhihu.com/people/someuser/collections`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runExportAll(args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCollectionCmd)
	exportCmd.AddCommand(exportAllCmd)

	exportCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for exported files (default: ./exports)")
	exportCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	exportCmd.PersistentFlags().DurationVar(&itemDelay, "item-delay", -1, "delay between items (default: 1.2s)")
	exportCmd.PersistentFlags().IntVar(&maxImageWidth, "max-image-width", 0, "maximum display width written into image tags")
	exportCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", 0, "maximum retry attempts for API calls")
	exportCmd.PersistentFlags().StringVar(&statsFile, "stats-file", "", "file persisting per-item timing between runs")
	exportCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")

	exportCollectionCmd.Flags().IntVar(&itemLimit, "limit", 0, "export at most this many items (0 = all)")
}

func runExportCollection(arg string) {
	page, err := zhihu.ParsePageURL(strings.TrimSpace(arg))
	if err != nil || page.Kind != zhihu.ContextCollection {
		ui.PrintError("Not a collection ID or URL", arg)
		fmt.Println("\nExpected a numeric collection ID or a URL like:")
		fmt.Println("  https://www.zhihu.com/collection/123456789")
		os.Exit(1)
	}

	env := setupExport()
	defer env.cancel()

	if !useTUI {
		ui.PrintInfo("Collection", page.CollectionID)
		printEstimate(env, page.CollectionID)
	}

	runWithUI(env, fmt.Sprintf("collection %s", page.CollectionID), func(ctx context.Context, exp *exporter.Exporter) (*exporter.Run, error) {
		return exp.ExportCollection(ctx, page.CollectionID, itemLimit)
	})
}

func runExportAll(arg string) {
	page, err := zhihu.ParsePageURL(strings.TrimSpace(arg))
	if err != nil || page.Kind != zhihu.ContextPeopleCollections {
		ui.PrintError("Not a user token or profile URL", arg)
		fmt.Println("\nExpected a url_token or a URL like:")
		fmt.Println("  https://www.zhihu.com/people/someuser/collections")
		os.Exit(1)
	}

	env := setupExport()
	defer env.cancel()

	if !useTUI {
		ui.PrintInfo("User", page.UserToken)
	}

	runWithUI(env, fmt.Sprintf("user %s", page.UserToken), func(ctx context.Context, exp *exporter.Exporter) (*exporter.Run, error) {
		return exp.ExportAllCollections(ctx, page.UserToken)
	})
}

// exportEnv bundles everything an export run needs
type exportEnv struct {
	cfg       *config.Config
	log       logger.Logger
	client    *zhihu.Client
	paginator *zhihu.Paginator
	resolver  *zhihu.Resolver
	store     *storage.Manager
	ctx       context.Context
	cancel    context.CancelFunc
}

// setupExport loads config, resolves credentials and builds the shared
// pipeline pieces. Exits the process on any failure.
func setupExport() *exportEnv {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if itemDelay >= 0 {
		flags["item-delay"] = itemDelay
	}
	if maxImageWidth > 0 {
		flags["max-image-width"] = maxImageWidth
	}
	if maxRetries > 0 {
		flags["max-attempts"] = maxRetries
	}
	if !notifications {
		flags["notifications"] = false
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if statsFile != "" {
		cfg.Output.StatsFile = statsFile
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log.InfoWithFields("zhexport starting", map[string]interface{}{
		"version": version,
	})

	resolveCookie(cfg, log)

	client := zhihu.NewClient(cfg.Zhihu.Cookie, cfg.Zhihu.RequestTimeout, log,
		zhihu.WithUserAgent(cfg.Zhihu.UserAgent),
		zhihu.WithRetryPolicy(retry.Policy{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			BaseDelay:     cfg.Retry.BaseDelay,
			BackoffFactor: cfg.Retry.BackoffFactor,
		}),
		zhihu.WithRateLimiter(ratelimit.NewTokenBucket(cfg.Zhihu.RequestsPerMinute, time.Minute)),
	)

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		ui.PrintError("Failed to create output directory", err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &exportEnv{
		cfg:       cfg,
		log:       log,
		client:    client,
		paginator: zhihu.NewPaginator(client, &ratelimit.SleepPacer{}, cfg.Pacing.PageDelay, log),
		resolver: zhihu.NewResolver(client, log,
			zhihu.WithLocateOptions(cfg.Extract.NoiseMarkers, cfg.Extract.MinRootLength)),
		store:     store,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// resolveCookie fills cfg.Zhihu.Cookie from the credential manager when the
// config and environment did not provide one
func resolveCookie(cfg *config.Config, log logger.Logger) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'zhexport auth list' to see stored accounts")
			os.Exit(1)
		}
	} else if strings.TrimSpace(cfg.Zhihu.Cookie) != "" {
		log.Info("using cookie from configuration")
		return
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil {
			log.Error("no credentials found")
			ui.PrintError("No Zhihu credentials found", "")
			fmt.Println("\nTo store a cookie securely, run:")
			fmt.Println("  zhexport auth login")
			fmt.Println("\nYou can also set an environment variable:")
			fmt.Println("  export ZHEXPORT_COOKIE='d_c0=...; z_c0=...'")
			os.Exit(1)
		}
	}

	cfg.Zhihu.Cookie = account.Cookie
	if account.UserAgent != "" {
		cfg.Zhihu.UserAgent = account.UserAgent
	}
	log.InfoWithFields("using stored credentials", map[string]interface{}{
		"account": account.Name,
	})
	if !useTUI {
		ui.PrintInfo("Using account", account.Name)
	}
	if !account.HasSessionToken() {
		ui.PrintWarning("Cookie has no z_c0 login token", "private collections will be invisible")
	}
}

// printEstimate shows item count and a duration estimate before a single
// collection export. Best effort; a failure here never blocks the run.
func printEstimate(env *exportEnv, collectionID string) {
	meta, err := env.paginator.CollectionMeta(env.ctx, collectionID)
	if err != nil || meta.ItemCount == 0 {
		return
	}

	count := meta.ItemCount
	if itemLimit > 0 && itemLimit < count {
		count = itemLimit
	}

	stats := exporter.NewStatsStore(env.cfg.Output.StatsFile)
	estimate := stats.Estimate(count, env.cfg.Pacing.ItemDelay)

	if meta.Title != "" {
		ui.PrintInfo("Title", meta.Title)
	}
	ui.PrintInfo("Items", fmt.Sprintf("%d", count))
	ui.PrintInfo("Estimated time", estimate.Round(time.Second).String())
}

// runWithUI executes the export with either the plain console sink or the
// interactive TUI, then prints the run summary
func runWithUI(env *exportEnv, scope string, run func(context.Context, *exporter.Exporter) (*exporter.Run, error)) {
	notifier := ui.NewDesktopNotifier(env.cfg.Notifications.Enabled)
	stats := exporter.NewStatsStore(env.cfg.Output.StatsFile)

	if useTUI {
		terminal := tui.New()
		exp := exporter.New(env.cfg, env.paginator, env.resolver, env.store, env.log,
			exporter.WithProgressSink(terminal),
			exporter.WithNotifier(notifier),
			exporter.WithStats(stats),
		)

		exportDone := make(chan error, 1)
		var result *exporter.Run
		go func() {
			r, err := run(env.ctx, exp)
			result = r
			exportDone <- err
		}()

		tuiDone := make(chan error, 1)
		go func() {
			tuiDone <- terminal.Run()
		}()

		select {
		case err := <-exportDone:
			terminal.Stop()
			<-tuiDone
			finishExport(env, scope, result, err)
		case err := <-tuiDone:
			env.cancel()
			exportErr := <-exportDone
			if err != nil {
				env.log.WithError(err).Error("terminal UI failed")
			}
			finishExport(env, scope, result, exportErr)
		}
		return
	}

	ui.PrintHighlight("[STARTING EXPORT]")
	exp := exporter.New(env.cfg, env.paginator, env.resolver, env.store, env.log,
		exporter.WithProgressSink(ui.NewConsoleSink()),
		exporter.WithNotifier(notifier),
		exporter.WithStats(stats),
	)
	result, err := run(env.ctx, exp)
	finishExport(env, scope, result, err)
}

func finishExport(env *exportEnv, scope string, result *exporter.Run, err error) {
	if err != nil {
		if env.ctx.Err() != nil {
			ui.PrintWarning("Export interrupted", scope)
		} else {
			env.log.WithError(err).Error("export failed")
			ui.PrintError("EXPORT FAILED", err.Error())
		}
		if result != nil {
			printSummary(env, result)
		}
		os.Exit(1)
	}

	env.log.InfoWithFields("export completed", map[string]interface{}{
		"scope": scope,
	})
	printSummary(env, result)
	ui.PrintSuccess("[EXPORT COMPLETED]")
}

func printSummary(env *exportEnv, result *exporter.Run) {
	if result == nil {
		return
	}
	fmt.Println()
	ui.PrintInfo("Processed", fmt.Sprintf("%d", result.Processed))
	ui.PrintInfo("Exported", fmt.Sprintf("%d", result.OK))
	if result.Failed > 0 {
		ui.PrintWarning("Failed", fmt.Sprintf("%d", result.Failed))
	}
	ui.PrintInfo("Elapsed", result.Elapsed.Round(time.Second).String())
	ui.PrintInfo("Output", env.store.BaseDir())
}
