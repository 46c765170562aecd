package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"fieldsync/internal/backend"
	"fieldsync/internal/config"
	"fieldsync/internal/handlers"
	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/queue"
	"fieldsync/internal/uplink"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewForDaemon(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open upload store", logging.Error(err))
		return
	}
	defer store.Close()

	client := backend.NewClient(cfg)
	registry := uplink.NewRegistry(logger)
	handlers.RegisterAll(registry, client, logger)

	monitor := netmon.NewProber(
		cfg.Backend.BaseURL+cfg.Backend.HealthPath,
		cfg.Network.Interval(),
		cfg.Network.Timeout(),
		logger,
	)
	processor := uplink.NewProcessor(store, registry, cfg.Sync.MaxRetries, logger)
	service := uplink.NewService(processor, monitor, cfg.Sync.Interval(), cfg.LockPath(), logger)

	if err := monitor.Start(ctx); err != nil {
		logger.Error("start network monitor", logging.Error(err))
		return
	}
	defer monitor.Stop()

	if err := service.Start(ctx); err != nil {
		logger.Error("start upload service", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("fieldsyncd shutting down")
	service.Stop()
}
