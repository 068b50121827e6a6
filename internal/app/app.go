// Package app assembles a metamodel runtime from configuration: entity
// store, memento store, specification loader and object manager.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/config"
	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/memento"
	"github.com/conduit-lang/metamodel/internal/metamodel/objectmanager"
	"github.com/conduit-lang/metamodel/internal/metamodel/specloader"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
	"github.com/conduit-lang/metamodel/internal/persistence"
	"github.com/conduit-lang/metamodel/internal/persistence/memstore"
	"github.com/conduit-lang/metamodel/internal/persistence/sqlstore"
	"github.com/conduit-lang/metamodel/internal/web/metamodelapi"
)

// App is an assembled metamodel runtime.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    persistence.Store
	Mementos memento.Store
	Specs    *specloader.Loader
	Report   *validation.Report
	Manager  *objectmanager.Manager

	closers []func() error
}

// New opens the stores named by cfg, loads types and migrates the entity
// tables of a SQL store. Validation failures do not fail New; they are in
// Report.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, types ...reflect.Type) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{Config: cfg, Logger: logging.OrNop(logger)}

	var sqlStore *sqlstore.Store
	switch cfg.Persistence.Driver {
	case "", "memory":
		a.Store = memstore.New(a.Logger)
	default:
		s, err := sqlstore.Open(cfg.Persistence.Driver, cfg.Persistence.DSN, a.Logger)
		if err != nil {
			return nil, err
		}
		sqlStore = s
		a.Store = s
		a.closers = append(a.closers, s.Close)
	}

	mementos, err := memento.Open(cfg.Memento)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open memento store: %w", err)
	}
	a.Mementos = mementos
	a.closers = append(a.closers, mementos.Close)

	a.Specs = specloader.New(specloader.Options{Config: cfg, Logger: a.Logger, Store: a.Store})
	report, err := a.Specs.LoadAll(types...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load metamodel: %w", err)
	}
	a.Report = report
	if report.HasFailures() {
		a.Logger.Warn("Metamodel has validation failures", zap.Int("count", report.Count()))
	}

	if sqlStore != nil {
		if err := sqlStore.Migrate(ctx, a.Specs.Specifications()); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Manager = objectmanager.New(objectmanager.Options{
		Specs:      a.Specs,
		Logger:     a.Logger,
		Mementos:   a.Mementos,
		MementoTTL: cfg.Memento.TTL,
	})
	a.Logger.Info("Metamodel loaded",
		zap.Int("types", len(a.Specs.Specifications())),
		zap.String("store", cfg.Persistence.Driver),
		zap.String("mementos", cfg.Memento.Backend),
	)
	return a, nil
}

// Handler returns the introspection API over the app.
func (a *App) Handler() http.Handler {
	return metamodelapi.New(metamodelapi.Options{
		Specs:       a.Specs,
		Manager:     a.Manager,
		Report:      a.Report,
		Logger:      a.Logger,
		CORSOrigins: a.Config.Server.CORSOrigins,
		Profiling:   a.Config.Server.Pprof,
	})
}

// Close closes the stores in reverse opening order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
