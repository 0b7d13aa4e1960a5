package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bookkeeper-io/bookkeeper/internal/common"
	"github.com/bookkeeper-io/bookkeeper/internal/ingest"
	"github.com/bookkeeper-io/bookkeeper/internal/intake"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

func main() {
	var (
		configPath    = flag.String("config", "", "optional YAML config file overlaying env vars")
		source        = flag.String("source", "file_upload", "source tag recorded on queued records")
		exts          = flag.String("ext", "", "comma-separated extensions to include (default: all supported)")
		includeHidden = flag.Bool("include-hidden", false, "do not skip dotfiles and dot-directories")
		verbose       = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <directory>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	root := flag.Arg(0)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *configPath != "" {
		if err := common.LoadConfigFile(cfg, *configPath); err != nil {
			logger.Error("failed to load config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:  cfg.Database.DSN,
		Path: cfg.Database.Path,
	}, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	queue := intake.NewManager(repository.NewIntakeRepository(db, logger), logger)
	crawler := ingest.NewCrawler(queue, *source, logger)

	var includeExts []string
	if *exts != "" {
		includeExts = strings.Split(*exts, ",")
	}

	results, stats, err := crawler.CrawlDirectory(ctx, root, includeExts, !*includeHidden)
	if err != nil {
		logger.Error("crawl failed", "root", root, "error", err)
		os.Exit(1)
	}

	for _, r := range results {
		switch {
		case r.Err != "":
			fmt.Printf("ERROR      %s: %s\n", r.Path, r.Err)
		case r.Duplicate:
			fmt.Printf("DUPLICATE  %s (existing %s)\n", r.Path, r.ExistingID)
		default:
			fmt.Printf("QUEUED     %s (%s)\n", r.Path, r.IntakeID)
		}
	}
	fmt.Printf("\nscanned=%d matched=%d queued=%d duplicates=%d failed=%d\n",
		stats.Scanned, stats.Matched, stats.Queued, stats.Duplicates, stats.Failed)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
