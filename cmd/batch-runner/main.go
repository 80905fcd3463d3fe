package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stolpersteine/internal/batch"
	"stolpersteine/internal/config"
	"stolpersteine/internal/logging"
	"stolpersteine/internal/pipeline"
	"stolpersteine/internal/storage"
	"stolpersteine/internal/wiki"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	must(cfg.RequireWiki())

	aliases, err := cfg.ColumnAliases()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	client := wiki.NewClient(cfg)
	processor := pipeline.NewProcessingService(db, cfg, client, aliases)
	svc := batch.NewService(db, cfg, client, processor)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
