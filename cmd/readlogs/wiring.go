package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/readlogs/internal/config"
	"github.com/MikeSquared-Agency/readlogs/internal/hermes"
	"github.com/MikeSquared-Agency/readlogs/internal/processor"
	"github.com/MikeSquared-Agency/readlogs/internal/store"
)

// deps are the optional backends shared by serve and batch.
type deps struct {
	db   *store.Store
	bus  *hermes.Client
	proc *processor.Processor
}

// connect opens the archive and the bus when they are configured. Either may
// be absent, in which case the processor only renders.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*deps, error) {
	d := &deps{}

	var archive processor.Archive
	if cfg.ArchiveEnabled() {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		d.db = db
		archive = db
		logger.Info("database connected")
	} else {
		logger.Warn("DATABASE_URL not set, transcripts will not be archived")
	}

	var bus processor.Publisher
	if cfg.BusEnabled() {
		client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			d.close(logger)
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		d.bus = client
		bus = client
		logger.Info("NATS connected", "url", cfg.NatsURL)
	}

	d.proc = processor.New(archive, bus, logger)
	return d, nil
}

func (d *deps) close(logger *slog.Logger) {
	if d.bus != nil {
		if err := d.bus.Flush(5 * time.Second); err != nil {
			logger.Warn("failed to flush NATS", "error", err)
		}
		d.bus.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}
