package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tapebook/api/feed"
	"tapebook/config"
	"tapebook/domain/book"
	"tapebook/infra/kafka"
	"tapebook/infra/metrics"
	"tapebook/infra/outbox"
	"tapebook/infra/sequence"
	"tapebook/infra/tape"
	"tapebook/infra/wal"
	"tapebook/jobs/broadcaster"
	"tapebook/service"
	"tapebook/snapshot"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	// ---------------- Config ----------------

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config load failed")
	}

	logger := newLogger(cfg.Logging)
	logger.Info().Str("addr", cfg.Server.Addr).Msg("starting")

	// ---------------- Metrics ----------------

	reg := metrics.Init(logger)

	// ---------------- Journal ----------------

	journal, err := wal.Open(wal.Config{
		Dir:         cfg.Journal.Dir,
		SegmentSize: cfg.Journal.SegmentSize,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("journal open failed")
	}
	defer journal.Close()

	// ---------------- Outbox ----------------

	prints, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("outbox open failed")
	}
	defer prints.Close()

	// ---------------- Domain ----------------

	seqGen := sequence.New(0)
	b := book.New(logger)

	// ---------------- Recovery ----------------

	if err := service.Recover(cfg.Journal.Dir, cfg.Snapshot.Dir, b, seqGen, logger); err != nil {
		logger.Fatal().Err(err).Msg("recovery failed")
	}

	// ---------------- Live depth stream ----------------

	var depth *kafka.Producer
	if cfg.Kafka.Enabled {
		depth = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DepthTopic)
		defer depth.Close()
	}

	// ---------------- Service ----------------

	svc := service.New(b, journal, prints, seqGen, depth, cfg.Depth.Levels, logger)

	hub := feed.NewHub(logger)
	defer hub.Close()
	svc.SetNotifier(hub)

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Kafka.Enabled {
		bc, err := broadcaster.New(prints, cfg.Kafka.Brokers, cfg.Kafka.PrintsTopic, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("broadcaster init failed")
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	snapJob := service.NewSnapshotJob(
		svc,
		&snapshot.Writer{Dir: cfg.Snapshot.Dir},
		journal,
		cfg.Snapshot.Interval,
		logger,
	)
	go snapJob.Run(ctx)

	// ---------------- Tape replay ----------------

	if cfg.TapeFile != "" {
		go func() {
			start := time.Now()
			n := 0
			err := tape.ForEach(cfg.TapeFile, func(ev book.Event) error {
				n++
				return svc.Apply(ctx, ev)
			})
			if err != nil {
				logger.Error().Err(err).Msg("tape replay failed")
				return
			}
			logger.Info().
				Int("events", n).
				Dur("elapsed", time.Since(start)).
				Msg("tape replay complete")
		}()
	}

	// ---------------- HTTP ----------------

	api := feed.NewServer(svc, hub, logger)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Handler(reg),
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server exited")
		}
	}()

	// ---------------- Shutdown ----------------

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	cancel()
	_ = journal.Sync()
}

func newLogger(cfg config.Logging) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := zerolog.New(os.Stderr)
	if cfg.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}
