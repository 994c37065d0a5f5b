package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/curio/internal/cli"
	"horse.fit/curio/internal/config"
	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/httpapi"
	"horse.fit/curio/internal/logging"
	"horse.fit/curio/internal/transport"
)

func runWorker(args []string) int {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	addr := fs.String("addr", "", "Ops HTTP listen address (defaults to CURIO_HTTP_ADDR)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("worker failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	service, err := buildService(cfg, pool, logger)
	if err != nil {
		logger.Error().Err(err).Msg("worker failed to build ingestion service")
		fmt.Fprintf(os.Stderr, "Failed to build ingestion service: %v\n", err)
		return 1
	}

	consumer, err := transport.NewConsumer(cfg, service.HandleAndAck, logger)
	if err != nil {
		logger.Error().Err(err).Msg("worker failed to create consumer")
		fmt.Fprintf(os.Stderr, "Failed to create consumer: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := consumer.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("consumer close failed")
		}
	}()

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = cfg.HTTPAddr
	}
	srv := httpapi.NewServer(pool, service.Stats(), logger, httpapi.Options{
		Addr:            listenAddr,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start(ctx)
	}()
	go func() {
		errCh <- consumer.Run(ctx)
	}()

	var exitCode int
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			logger.Error().Err(err).Msg("worker component failed")
			exitCode = 1
			cancel()
		}
	}
	return exitCode
}
