package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"videoingest/internal/app"
	"videoingest/internal/dedup"
	"videoingest/internal/hashing"
	"videoingest/internal/hashlock"
	"videoingest/internal/metrics"
	"videoingest/internal/opsserver"
	mongorepo "videoingest/internal/repository/mongo"
	"videoingest/internal/queue"
	"videoingest/internal/server"
	"videoingest/internal/telemetry"
	"videoingest/internal/transcode/ffmpeg"
	"videoingest/internal/usecase"
)

func main() {
	workers, queueCapacity, err := app.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	logger.Info("configuration loaded",
		slog.Int("workers", workers),
		slog.Int("queueCapacity", queueCapacity),
		slog.String("ingestAddr", cfg.IngestAddr),
		slog.String("uploadsDir", cfg.UploadsDir),
		slog.String("metricsAddr", cfg.MetricsAddr),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Init(rootCtx, "videoingest")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		logger.Error("uploads dir create failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	transcoder := ffmpeg.New(cfg.FFMPEGPath)

	var settingsMgr *app.TranscodeSettingsManager
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		mongoClient, err := mongorepo.Connect(connectCtx, cfg.MongoURI, options.Client().SetMonitor(otelmongo.NewMonitor()))
		cancel()
		if err != nil {
			logger.Warn("mongo connect failed, continuing without settings persistence", slog.String("error", err.Error()))
		} else {
			pingCtx, pingCancel := context.WithTimeout(rootCtx, 5*time.Second)
			pingErr := mongoClient.Ping(pingCtx, readpref.Primary())
			pingCancel()
			if pingErr != nil {
				logger.Warn("mongo ping failed, continuing without settings persistence", slog.String("error", pingErr.Error()))
			} else {
				store := mongorepo.NewTranscodeSettingsRepository(mongoClient, cfg.MongoDB)
				settingsMgr = app.NewTranscodeSettingsManager(transcoder, store)
				loadCtx, loadCancel := context.WithTimeout(rootCtx, 5*time.Second)
				if err := settingsMgr.LoadInto(loadCtx); err != nil {
					logger.Warn("transcode settings load failed", slog.String("error", err.Error()))
				}
				loadCancel()
			}
		}
	}
	if settingsMgr == nil {
		logger.Info("transcode settings persistence disabled (MONGO_URI unset or unreachable); using defaults")
	}

	hashLocks := hashlock.NewTable()
	bounded := queue.NewBounded(queueCapacity)
	metrics.QueueCapacity.Set(float64(queueCapacity))

	handler := &usecase.Handler{
		UploadsDir: cfg.UploadsDir,
		Hasher:     hashing.NewSHA256Hasher(),
		DupIndex:   dedup.NewDirScanIndex(hashing.NewSHA256Hasher()),
		Transcoder: transcoder,
		Queue:      bounded,
		Locks:      hashLocks,
		Log:        logger,
	}

	acceptor := &server.Acceptor{
		Addr:    cfg.IngestAddr,
		Workers: workers,
		Handler: handler,
		Log:     logger,
	}

	ops := &opsserver.Server{
		Addr:  cfg.MetricsAddr,
		Queue: bounded,
		Log:   logger,
	}

	go reportQueueMetrics(rootCtx, bounded, hashLocks)

	errCh := make(chan error, 2)
	go func() { errCh <- acceptor.Run(rootCtx) }()
	go func() { errCh <- ops.Run(rootCtx) }()

	logger.Info("videoingest started", slog.String("ingestAddr", cfg.IngestAddr), slog.String("metricsAddr", cfg.MetricsAddr))

	pending := 2
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		pending--
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server exited with error", slog.String("error", err.Error()))
		}
	}

	stop()
	for ; pending > 0; pending-- {
		<-errCh
	}

	logger.Info("videoingest stopped")
}

func reportQueueMetrics(ctx context.Context, q *queue.Bounded, locks *hashlock.Table) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.QueueDepth.Set(float64(q.Size()))
			metrics.HashLockTableSize.Set(float64(locks.Len()))
		}
	}
}
