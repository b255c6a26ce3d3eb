// Package engine orchestrates the ledger. Every mutation is checked against the
// current snapshot, persisted through service.Storage in one transaction, and
// only then applied to the in-memory ledger.Store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/ledgerflow/internal/alerts"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/report"
	"github.com/Veraticus/ledgerflow/internal/service"
	"github.com/Veraticus/ledgerflow/internal/storage"
)

// ErrNoStorage is returned by New without a storage backend.
var ErrNoStorage = errors.New("engine requires a storage backend")

// SettingCurrency is the settings key holding the ledger's currency.
const SettingCurrency = "currency"

// Checkpointer takes a safety copy of the database before destructive
// operations. storage.CheckpointManager implements it.
type Checkpointer interface {
	AutoCheckpoint(ctx context.Context, operation string) (*storage.CheckpointInfo, error)
}

// Config holds the engine's collaborators. Only Storage is required.
type Config struct {
	Storage     service.Storage
	Store       *ledger.Store
	Alerts      *alerts.Engine
	Sink        alerts.Sink
	Reporter    *report.Reporter
	Checkpoints Checkpointer
	Clock       func() time.Time
	NewID       func() string
	Currency    string
}

// Engine is the single writer of the ledger.
type Engine struct {
	storage     service.Storage
	store       *ledger.Store
	alerts      *alerts.Engine
	sink        alerts.Sink
	reporter    *report.Reporter
	checkpoints Checkpointer
	now         func() time.Time
	newID       func() string
	currency    string

	// mu serializes mutations so the snapshot a change was checked against is
	// still current when it is dispatched.
	mu sync.Mutex
}

// New creates an engine. Call Hydrate before use.
func New(cfg Config) (*Engine, error) {
	if cfg.Storage == nil {
		return nil, ErrNoStorage
	}
	e := &Engine{
		storage:     cfg.Storage,
		store:       cfg.Store,
		alerts:      cfg.Alerts,
		sink:        cfg.Sink,
		reporter:    cfg.Reporter,
		checkpoints: cfg.Checkpoints,
		now:         cfg.Clock,
		newID:       cfg.NewID,
		currency:    cfg.Currency,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.store == nil {
		e.store = ledger.NewStore(nil)
	}
	if e.alerts == nil {
		e.alerts = alerts.NewEngine(alerts.NewDeduplicator(alerts.DefaultCooldown, e.now))
	}
	if e.reporter == nil {
		e.reporter = report.NewReporter(report.DefaultCacheSize, report.DefaultTopCategories)
	}
	if e.currency == "" {
		e.currency = model.DefaultCurrency
	}
	return e, nil
}

// Store exposes the ledger store for subscriptions.
func (e *Engine) Store() *ledger.Store {
	return e.store
}

// Snapshot returns the current ledger state.
func (e *Engine) Snapshot() *ledger.Snapshot {
	return e.store.Snapshot()
}

// Report builds, or returns the memoized, report of the current snapshot.
func (e *Engine) Report(f model.ReportFilters) *report.Report {
	return e.reporter.Report(e.store.Snapshot(), f)
}

// Hydrate loads the persisted ledger into the store. An empty category table
// is seeded with the default categories first.
func (e *Engine) Hydrate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		accounts     []model.Account
		transactions []model.Transaction
		categories   []model.Category
		budgets      []model.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		accounts, err = e.storage.GetAccounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		transactions, err = e.storage.GetTransactions(gctx, service.TransactionFilter{})
		return err
	})
	g.Go(func() (err error) {
		categories, err = e.storage.GetCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = e.storage.GetBudgets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	if err := e.loadCurrency(ctx); err != nil {
		return err
	}

	if len(categories) == 0 {
		seeded, err := e.seedCategories(ctx)
		if err != nil {
			return err
		}
		categories = seeded
	}

	e.store.Replace(ledger.NewSnapshot(accounts, transactions, categories, budgets))
	slog.Info("ledger loaded",
		"accounts", len(accounts),
		"transactions", len(transactions),
		"categories", len(categories),
		"budgets", len(budgets))
	return nil
}

// loadCurrency makes the currency stored with the ledger authoritative. A new
// ledger stores the configured one.
func (e *Engine) loadCurrency(ctx context.Context) error {
	stored, err := e.storage.GetSetting(ctx, SettingCurrency)
	switch {
	case errors.Is(err, common.ErrNotFound):
		if err := e.storage.SetSetting(ctx, SettingCurrency, e.currency); err != nil {
			return fmt.Errorf("failed to store ledger currency: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to load ledger currency: %w", err)
	}
	if stored != e.currency {
		slog.Debug("using stored ledger currency", "stored", stored, "configured", e.currency)
	}
	e.currency = stored
	return nil
}

// Currency is the currency new accounts and budgets are created in.
func (e *Engine) Currency() string {
	return e.currency
}

func (e *Engine) seedCategories(ctx context.Context) ([]model.Category, error) {
	defaults := model.DefaultCategories()
	err := service.WithTransaction(ctx, e.storage, func(tx service.Transaction) error {
		for i := range defaults {
			if err := tx.CreateCategory(ctx, &defaults[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed default categories: %w", err)
	}
	slog.Info("seeded default categories", "count", len(defaults))
	return defaults, nil
}

// commit checks intent against the current snapshot, runs persist inside one
// storage transaction and, when that succeeds, dispatches intent. Callers hold
// e.mu.
func (e *Engine) commit(ctx context.Context, intent ledger.Intent, persist func(tx service.Transaction, prev, next *ledger.Snapshot) error) (*ledger.Snapshot, error) {
	prev := e.store.Snapshot()
	next, err := intent.Apply(prev)
	if err != nil {
		return prev, err
	}

	err = service.WithTransaction(ctx, e.storage, func(tx service.Transaction) error {
		return persist(tx, prev, next)
	})
	if err != nil {
		return prev, err
	}

	return e.store.Dispatch(intent)
}

// publish hands alerts to the sink. Delivery failures are logged; the write
// that raised the alert has already succeeded.
func (e *Engine) publish(ctx context.Context, raised ...model.Alert) {
	if len(raised) == 0 || e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, raised...); err != nil {
		slog.Warn("failed to deliver budget alerts", "count", len(raised), "error", err)
	}
}

// processAlerts evaluates the budget of each expense in txns against this
// month's spending in s.
func (e *Engine) processAlerts(ctx context.Context, s *ledger.Snapshot, txns ...model.Transaction) []model.Alert {
	spending := report.SpendingByCategory(s.Transactions(), e.now())
	var raised []model.Alert
	for _, t := range txns {
		if alert, ok := e.alerts.ProcessTransaction(t, s.Budgets(), spending); ok {
			raised = append(raised, alert)
		}
	}
	e.publish(ctx, raised...)
	return raised
}

// CheckAlerts evaluates every budget against this month's spending and
// publishes the alerts that are due.
func (e *Engine) CheckAlerts(ctx context.Context) []model.Alert {
	s := e.store.Snapshot()
	raised := e.alerts.Evaluate(s.Budgets(), report.SpendingByCategory(s.Transactions(), e.now()))
	e.publish(ctx, raised...)
	return raised
}
