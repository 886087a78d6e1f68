package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crossfill/config"
	"github.com/domino14/crossfill/worker"
)

func main() {
	// Parse command-line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Set up logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Create crossfill config
	crossfillConfig := &config.Config{}
	if err := crossfillConfig.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Adjust relative paths for data
	exePath, err := os.Executable()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get executable path")
	}
	crossfillConfig.AdjustRelativePaths(exePath)

	log.Info().Interface("config", crossfillConfig.SanitizedSettings()).Msg("loaded crossfill config")

	// Create worker config
	workerConfig := worker.DefaultWorkerConfig()
	workerConfig.CrossfillConfig = crossfillConfig

	log.Info().
		Str("jobs-url", workerConfig.JobsBaseURL).
		Msg("starting solve worker")

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	// Create worker
	w, err := worker.NewSolveWorker(ctx, workerConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create worker")
	}

	// Run the worker
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("worker failed")
	}

	log.Info().Msg("solve worker stopped")
}
