package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tidbyt.dev/combine"
	"tidbyt.dev/combine/config"
	"tidbyt.dev/combine/downloader"
	"tidbyt.dev/combine/model"
	"tidbyt.dev/combine/parse"
	"tidbyt.dev/combine/report"
	"tidbyt.dev/combine/storage"
)

// Written to the output directory alongside the combined feed.
const runLogFile = "run_log.txt"

var (
	keepDwell bool
	clearDB   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Combine all feeds into one for the service date",
	RunE:  run,
}

func init() {
	runCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory the combined feed is written to")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of feeds processed concurrently")
	runCmd.Flags().StringVarP(&sqlitePath, "sqlite", "", "", "Also write the combined feed to this SQLite file")
	runCmd.Flags().StringVarP(&postgresConn, "postgres", "", "", "Also write the combined feed to this PostgreSQL database")
	runCmd.Flags().BoolVarP(&clearDB, "clear-db", "", false, "Drop all PostgreSQL tables before writing")
	runCmd.Flags().BoolVarP(&keepDwell, "keep-dwell", "", false, "Keep dwell times of trips expanded from frequencies")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	// Fail before anything is parsed if there's nowhere to write.
	if fi, err := os.Stat(cfg.OutputDir); err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", storage.ErrOutputDir, cfg.OutputDir)
	}

	logFile, err := os.Create(filepath.Join(cfg.OutputDir, runLogFile))
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer logFile.Close()

	runID := uuid.New().String()
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, logFile), nil)).With("run_id", runID)

	combiner := &combine.Combiner{
		Workers:  cfg.Workers,
		Reporter: report.Slog(logger),
	}
	if keepDwell {
		combiner.Dwell = combine.KeepDwell
	}

	err = execute(cmd.Context(), cfg, runID, combiner)
	if err != nil {
		logger.Error("Combining failed", "error", err)
		return err
	}

	return nil
}

// Builds the configuration from, in increasing order of precedence,
// the config file, .env, the environment and command line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = config.LoadDotEnv(".env")
	if err != nil {
		return nil, err
	}

	err = cfg.ApplyEnv()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("gtfs-dir") {
		cfg.GTFSDir = gtfsDir
	}
	if flags.Changed("service-date") {
		cfg.ServiceDate = serviceDate
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("sqlite") {
		cfg.SQLite = sqlitePath
	}
	if flags.Changed("postgres") {
		cfg.Postgres = postgresConn
	}

	err = addRemoteFeeds(cfg, feedURLs, sharedHeaders)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Adds feeds given as <name>=<url> to cfg. Headers apply to every
// remote feed, including those from the config file, without
// overriding headers configured per feed.
func addRemoteFeeds(cfg *config.Config, urls []string, headers []string) error {
	feeds, err := parseFeedURLs(urls)
	if err != nil {
		return err
	}
	cfg.Feeds = append(cfg.Feeds, feeds...)

	shared, err := parseHeaders(headers)
	if err != nil {
		return err
	}
	for i := range cfg.Feeds {
		if cfg.Feeds[i].Headers == nil {
			cfg.Feeds[i].Headers = map[string]string{}
		}
		for k, v := range shared {
			if _, found := cfg.Feeds[i].Headers[k]; !found {
				cfg.Feeds[i].Headers[k] = v
			}
		}
	}

	return nil
}

// Combines every configured feed and writes the result. The
// combiner's Date is set from cfg.
func execute(ctx context.Context, cfg *config.Config, runID string, combiner *combine.Combiner) error {
	date, err := combine.ParseServiceDate(cfg.ServiceDate)
	if err != nil {
		return err
	}
	combiner.Date = date

	reporter := combiner.Reporter
	if reporter == nil {
		reporter = report.Nop
	}

	csvWriter, err := storage.NewCSVWriter(cfg.OutputDir)
	if err != nil {
		return err
	}

	sources, err := feedSources(cfg, reporter)
	if err != nil {
		return err
	}

	start := time.Now()
	feed, err := combiner.Combine(ctx, sources)
	if err != nil {
		return err
	}

	mirrors := storage.MultiWriter{}
	if cfg.SQLite != "" {
		w, err := storage.NewSQLiteWriter(cfg.SQLite)
		if err != nil {
			return fmt.Errorf("opening sqlite: %w", err)
		}
		mirrors = append(mirrors, w)
	}
	if cfg.Postgres != "" {
		w, err := storage.NewPSQLWriter(cfg.Postgres, runID, clearDB)
		if err != nil {
			mirrors.Abort()
			return fmt.Errorf("opening postgres: %w", err)
		}
		mirrors = append(mirrors, w)
	}

	err = writeOutput(feed, mirrors, csvWriter)
	if err != nil {
		return err
	}

	reporter.Report(slog.LevelInfo, "Wrote combined feed",
		"output_dir", cfg.OutputDir,
		"trips", len(feed.Trips),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// Writes feed to the database mirrors and the output directory. The
// CSV files are only put in place once every mirror was written and
// closed; on any failure everything is aborted.
func writeOutput(feed *model.Feed, mirrors []storage.FeedWriter, csvWriter storage.FeedWriter) error {
	writers := make(storage.MultiWriter, 0, len(mirrors)+1)
	writers = append(writers, mirrors...)
	writers = append(writers, csvWriter)

	err := storage.WriteFeed(writers, feed)
	if err != nil {
		writers.Abort()
		return fmt.Errorf("writing combined feed: %w", err)
	}

	err = writers.Close()
	if err != nil {
		return fmt.Errorf("writing combined feed: %w", err)
	}

	return nil
}

// Local feeds from the GTFS directory come first, in name order,
// followed by remote feeds in configured order.
func feedSources(cfg *config.Config, reporter report.Reporter) ([]combine.Source, error) {
	sources := []combine.Source{}

	if cfg.GTFSDir != "" {
		local, err := parse.Discover(cfg.GTFSDir, reporter)
		if err != nil {
			return nil, err
		}
		for _, src := range local {
			sources = append(sources, src)
		}
	}

	if len(cfg.Feeds) == 0 {
		return sources, nil
	}

	var d downloader.Downloader
	if cfg.Cache.Dir != "" {
		fsd, err := downloader.NewFilesystem(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening download cache: %w", err)
		}
		d = fsd
	} else {
		d = downloader.NewMemoryDownloader()
	}

	options := downloader.GetOptions{
		MaxSize:  cfg.Cache.MaxSizeMB * 1024 * 1024,
		Cache:    cfg.Cache.Dir != "" || cfg.Cache.TTLMinutes > 0,
		CacheTTL: cfg.CacheTTL(),
	}

	for _, f := range cfg.Feeds {
		sources = append(sources, &parse.RemoteSource{
			FeedName:   f.Name,
			URL:        f.URL,
			Headers:    f.Headers,
			Downloader: d,
			Options:    options,
			Reporter:   reporter,
		})
	}

	return sources, nil
}
