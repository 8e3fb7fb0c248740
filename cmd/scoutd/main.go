package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"scout/internal/config"
	"scout/internal/daemon"
	"scout/internal/folders"
	"scout/internal/index"
	"scout/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := folders.Open(cfg)
	if err != nil {
		logger.Error("open registry store", logging.Error(err))
		return
	}

	idx, err := index.Open(cfg)
	if err != nil {
		_ = store.Close()
		logger.Error("open index store", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, store, idx, logger)
	if err != nil {
		_ = store.Close()
		_ = idx.Close()
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("scoutd shutting down")
}
