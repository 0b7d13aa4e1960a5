package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/common"
	"github.com/bookkeeper-io/bookkeeper/internal/core"
	"github.com/bookkeeper-io/bookkeeper/internal/core/async"
	"github.com/bookkeeper-io/bookkeeper/internal/extract"
	"github.com/bookkeeper-io/bookkeeper/internal/intake"
	"github.com/bookkeeper-io/bookkeeper/internal/llm/openai"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

func main() {
	var (
		configPath   = flag.String("config", "", "optional YAML config file overlaying env vars")
		showStatus   = flag.Bool("status", false, "print queue status counts and exit")
		clearQueue   = flag.Bool("clear-queue", false, "fail all queued records and exit")
		pollInterval = flag.Duration("poll-interval", 0, "override queue poll interval")
		verbose      = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

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
	if *pollInterval > 0 {
		cfg.Queue.PollInterval = *pollInterval
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		Path:             cfg.Database.Path,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, 3*time.Second); err != nil {
		logger.Error("store health check failed", "error", err)
		os.Exit(1)
	}

	intakeRepo := repository.NewIntakeRepository(db, logger)
	queue := intake.NewManager(intakeRepo, logger)

	// Administrative modes run against the store directly, no analyzer needed.
	if *showStatus {
		printStatus(ctx, intakeRepo)
		return
	}
	if *clearQueue {
		n, err := queue.ClearQueue(ctx)
		if err != nil {
			logger.Error("clear queue failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("cleared %d queued record(s)\n", n)
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	docRepo := repository.NewDocumentRepository(db, logger)
	extractor := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extractor.Pdftotext,
		Pdftoppm:      cfg.Extractor.Pdftoppm,
		Tesseract:     cfg.Extractor.Tesseract,
		TesseractLang: cfg.Extractor.TesseractLang,
		DPI:           cfg.Extractor.DPI,
		Timeout:       cfg.Extractor.Timeout,
	}, logger)
	analyzer := openai.NewClient(openai.Config{
		APIKey:      cfg.Analyzer.APIKey,
		BaseURL:     cfg.Analyzer.BaseURL,
		Model:       cfg.Analyzer.Model,
		Temperature: cfg.Analyzer.Temperature,
		Timeout:     cfg.Analyzer.Timeout,
	}, logger)
	processor := core.NewProcessor(queue, docRepo, extractor, analyzer, logger)
	poller := async.NewPoller(processor, cfg.Queue.PollInterval, logger)

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("health endpoint serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve failed", "error", err)
			stop()
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	<-done // let the in-flight record finish
	grpcServer.GracefulStop()
	logger.Info("stopped", "processed", poller.Processed())
}

func printStatus(ctx context.Context, repo repository.IntakeRepository) {
	statuses := []constants.ProcessingStatus{
		constants.StatusQueuedForExtraction,
		constants.StatusProcessing,
		constants.StatusCompleted,
		constants.StatusFailed,
		constants.StatusQuarantined,
	}
	for _, s := range statuses {
		n, err := repo.CountByStatus(ctx, s)
		if err != nil {
			fmt.Printf("%-24s error: %v\n", s, err)
			continue
		}
		fmt.Printf("%-24s %d\n", s, n)
	}
}
