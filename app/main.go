package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/lysyi3m/flipnews/app/api"
	"github.com/lysyi3m/flipnews/app/cfg"
	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/dataset"
	"github.com/lysyi3m/flipnews/app/feed"
	"github.com/lysyi3m/flipnews/app/pipeline"
	"github.com/lysyi3m/flipnews/app/process"
	"github.com/lysyi3m/flipnews/app/store"
	"github.com/lysyi3m/flipnews/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	switch appCfg.Command {
	case cfg.CommandCrawl:
		setupLogger(appCfg.Debug, slog.LevelWarn)
		os.Exit(runCrawl(appCfg))
	case cfg.CommandPublish:
		setupLogger(appCfg.Debug, slog.LevelWarn)
		os.Exit(runPublish(appCfg))
	default:
		setupLogger(appCfg.Debug, slog.LevelInfo)
		if err := runServer(appCfg); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}
}

// setupLogger writes to stderr. The crawl and publish subcommands keep stdout
// for their result lines, so they only log warnings unless debugging.
func setupLogger(debug bool, level slog.Level) {
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func runCrawl(appCfg *cfg.Cfg) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := feed.NewCatalog()
	if err := catalog.Load(appCfg.TopicsFile); err != nil {
		slog.Error("Failed to load topic catalog", "error", err)
		return 1
	}

	crawler := feed.NewCrawler(
		store.NewFilePreferenceStore(appCfg.Path(cfg.PreferencesFile)),
		catalog,
		feed.NewFetcher(appCfg.FetchTimeout, appCfg.RequestsPerSec, appCfg.UserAgent),
		feed.CrawlerConfig{
			SearchURL:  appCfg.NewsSearchURL,
			PerTopic:   appCfg.PerTopicLimit,
			OutputPath: appCfg.Path(cfg.IntermediateFile),
		},
		os.Stdout,
	)

	if _, err := crawler.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Crawl failed: %v\n", err)
		return 1
	}
	return 0
}

func runPublish(appCfg *cfg.Cfg) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, appCfg.PublishTimeout)
	defer cancel()

	publisher := dataset.NewPublisher(appCfg.Path(cfg.IntermediateFile), appCfg.Path(cfg.PublishedFile))
	count, err := publisher.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Publish failed: %v\n", err)
		return 1
	}

	fmt.Print(pipeline.PublishedMessage(count))
	return 0
}

func runServer(appCfg *cfg.Cfg) error {
	slog.Info("Starting FlipNews server", "version", appCfg.Version, "data_dir", appCfg.DataDir)

	db, err := database.NewConnection(appCfg.Path(cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	catalog := feed.NewCatalog()
	if err := catalog.Load(appCfg.TopicsFile); err != nil {
		return fmt.Errorf("failed to load topic catalog: %w", err)
	}
	slog.Info("Loaded topic catalog", "topics", catalog.Count())

	preferences := store.NewFilePreferenceStore(appCfg.Path(cfg.PreferencesFile))
	sourceRepo := database.NewSourceRepository(db)
	runRepo := database.NewSyncRunRepository(db)

	runner := process.NewRunner(appCfg.BenignMarkers)

	crawlerCmd, err := crawlerCommand(appCfg)
	if err != nil {
		return err
	}
	slog.Info("Crawler command configured", "command", crawlerCmd.String())

	publishedReader := dataset.NewReader(appCfg.Path(cfg.PublishedFile))

	var publisher pipeline.Publisher
	if len(appCfg.PublisherCommand) > 0 {
		publisherCmd := process.Command{
			Name:    "publisher",
			Path:    appCfg.PublisherCommand[0],
			Args:    appCfg.PublisherCommand[1:],
			Dir:     appCfg.DataDir,
			Timeout: appCfg.PublishTimeout,
		}
		publisher = pipeline.NewProcessPublisher(runner, publisherCmd, publishedReader)
		slog.Info("Publisher command configured", "command", publisherCmd.String())
	} else {
		publisher = pipeline.NewDatasetPublisher(
			dataset.NewPublisher(appCfg.Path(cfg.IntermediateFile), appCfg.Path(cfg.PublishedFile)),
			appCfg.PublishTimeout,
		)
	}

	orchestrator := pipeline.NewOrchestrator(preferences, pipeline.NewProcessCrawler(runner, crawlerCmd), publisher, runRepo)

	fetcher := feed.NewFetcher(appCfg.FetchTimeout, appCfg.RequestsPerSec, appCfg.UserAgent)
	sourceCrawler := feed.NewSourceCrawler(fetcher, appCfg.Path(cfg.AdminCrawlFile))

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(orchestrator, preferences, sourceCrawler, sourceRepo)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(api.Dependencies{
		Syncer:      orchestrator,
		Topics:      catalog,
		Preferences: preferences,
		Notes:       store.NewFileNoteStore(appCfg.Path(cfg.NotesFile)),
		Visuals:     store.NewFileVisualStore(appCfg.Path(cfg.VisualSettingsFile)),
		Dataset:     publishedReader,
		Generator:   feed.NewGenerator(),
		Sources:     sourceRepo,
		Runs:        runRepo,
		Scheduler:   scheduler,
		Probe:       api.NewHostProbe(),
		DataDir:     appCfg.DataDir,
		BaseURL:     appCfg.BaseUrl,
		Version:     appCfg.Version,
		SyncTimeout: appCfg.SyncTimeout,
	})
	router := api.NewServer(handler, appCfg.AdminAccessKey)

	// A sync request holds its connection for the whole crawl and publish
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appCfg.SyncTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return runErr
}

// crawlerCommand returns the configured crawler, or this binary's own crawl
// subcommand pointed at the same data directory.
func crawlerCommand(appCfg *cfg.Cfg) (process.Command, error) {
	command := process.Command{
		Name:    "crawler",
		Dir:     appCfg.DataDir,
		Timeout: appCfg.CrawlTimeout,
	}

	if len(appCfg.CrawlerCommand) > 0 {
		command.Path = appCfg.CrawlerCommand[0]
		command.Args = appCfg.CrawlerCommand[1:]
		return command, nil
	}

	self, err := os.Executable()
	if err != nil {
		return process.Command{}, fmt.Errorf("failed to locate executable for the crawler: %w", err)
	}

	dataDir, err := filepath.Abs(appCfg.DataDir)
	if err != nil {
		return process.Command{}, fmt.Errorf("failed to resolve data dir: %w", err)
	}

	command.Path = self
	command.Args = []string{
		"--data-dir", dataDir,
		"--news-search-url", appCfg.NewsSearchURL,
		"--per-topic", strconv.Itoa(appCfg.PerTopicLimit),
		"--fetch-timeout", strconv.Itoa(int(appCfg.FetchTimeout / time.Second)),
		"--requests-per-sec", strconv.FormatFloat(appCfg.RequestsPerSec, 'f', -1, 64),
		"--user-agent", appCfg.UserAgent,
	}
	if appCfg.TopicsFile != "" {
		topicsFile, err := filepath.Abs(appCfg.TopicsFile)
		if err != nil {
			return process.Command{}, fmt.Errorf("failed to resolve topics file: %w", err)
		}
		command.Args = append(command.Args, "--topics-file", topicsFile)
	}
	if appCfg.Debug {
		command.Args = append(command.Args, "--debug")
	}
	command.Args = append(command.Args, cfg.CommandCrawl)

	return command, nil
}
