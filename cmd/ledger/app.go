package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ledgerflow/internal/alerts"
	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/report"
	"github.com/Veraticus/ledgerflow/internal/storage"
)

// app is everything a command needs to work on the ledger.
type app struct {
	storage     *storage.SQLiteStorage
	checkpoints *storage.CheckpointManager
	engine      *engine.Engine
	publisher   *alerts.AMQPPublisher
	stream      *alerts.Stream
	unsubscribe func()
	printed     chan struct{}
}

// openStorage opens and migrates the configured database.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// openApp wires storage, alerts, reporting and the engine, and loads the
// ledger. Alerts raised while the command runs are printed to stdout.
func openApp(ctx context.Context) (*app, error) {
	store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}
	a := &app{storage: store, stream: alerts.NewStream(), printed: make(chan struct{})}

	a.checkpoints, err = store.NewCheckpointManager()
	if err != nil {
		slog.Warn("Checkpoints unavailable", "error", err)
		a.checkpoints = nil
	}

	var sink alerts.Sink = a.stream
	if cfg.Alerts.AMQP.Enabled() {
		a.publisher, err = alerts.DialAMQP(cfg.Alerts.AMQP.URL, cfg.Alerts.AMQP.Exchange, cfg.Alerts.AMQP.RoutingKey)
		if err != nil {
			// Alerts still reach the terminal.
			slog.Warn("Failed to connect to alert broker", "error", err)
		} else {
			sink = alerts.MultiSink{a.stream, a.publisher}
		}
	}

	ecfg := engine.Config{
		Storage:  store,
		Alerts:   alerts.NewEngine(alerts.NewDeduplicator(cfg.Alerts.Cooldown, nil), alerts.WithDefaultThreshold(cfg.Alerts.DefaultThreshold)),
		Sink:     sink,
		Reporter: report.NewReporter(cfg.Reports.CacheSize, cfg.Reports.TopCategories),
		Currency: cfg.Ledger.DefaultCurrency,
	}
	if a.checkpoints != nil {
		ecfg.Checkpoints = a.checkpoints
	}
	a.engine, err = engine.New(ecfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.engine.Hydrate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	alertsCh, unsubscribe := a.stream.Subscribe(16)
	a.unsubscribe = unsubscribe
	go func() {
		defer close(a.printed)
		for alert := range alertsCh {
			fmt.Println(cli.FormatAlert(alert)) //nolint:forbidigo // User-facing output
		}
	}()

	return a, nil
}

// Close flushes pending alert output and releases every resource.
func (a *app) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		<-a.printed
	}
	a.stream.Close()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("Failed to close alert publisher", "error", err)
		}
	}
	if err := a.storage.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
