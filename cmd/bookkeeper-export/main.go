package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookkeeper-io/bookkeeper/internal/common"
	"github.com/bookkeeper-io/bookkeeper/internal/export"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file overlaying env vars")
		out        = flag.String("out", "documents.xlsx", "output spreadsheet path")
		fromStr    = flag.String("from", "", "earliest document date (YYYY-MM-DD)")
		toStr      = flag.String("to", "", "latest document date (YYYY-MM-DD)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *configPath != "" {
		if err := common.LoadConfigFile(cfg, *configPath); err != nil {
			logger.Error("failed to load config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	from, err := parseDateFlag(*fromStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		os.Exit(2)
	}
	to, err := parseDateFlag(*toStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
		os.Exit(2)
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

	svc := export.NewService(repository.NewDocumentRepository(db, logger), logger)
	n, err := svc.WriteXLSX(ctx, *out, from, to)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d document(s) to %s\n", n, *out)
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
