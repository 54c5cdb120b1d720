// Package runtime assembles the services a ctags command runs against:
// logging, error reporting, the datastore, the entity catalog, metrics and
// the tagging engine.
package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/canonicaltags/ctags/internal/catalog"
	"github.com/canonicaltags/ctags/internal/conf"
	"github.com/canonicaltags/ctags/internal/datastore"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/observability"
	"github.com/canonicaltags/ctags/internal/tagging"
	"github.com/canonicaltags/ctags/internal/telemetry"
)

// BuildInfo is injected at link time.
type BuildInfo struct {
	Version   string
	BuildDate string
}

// Context holds the services shared by one command invocation.
type Context struct {
	Build    BuildInfo
	Settings *conf.Settings

	Logger  *logger.CentralLogger
	Store   datastore.Manager
	Catalog *catalog.GormCatalog
	Metrics *observability.Metrics
	Engine  *tagging.Engine

	log logger.Logger
}

// Provider returns the Context of the running command. Commands are built
// before settings are loaded, so they receive a Provider instead.
type Provider func() *Context

// New builds the runtime for settings. The caller must Close it.
func New(settings *conf.Settings, build BuildInfo) (rc *Context, err error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	if settings.Debug && settings.Logging.Console != nil {
		settings.Logging.Console.Level = "debug"
	}
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	rc = &Context{Build: build, Settings: settings, Logger: central, log: central.Module("runtime")}
	defer func() {
		if err != nil {
			_ = rc.Close()
		}
	}()

	if err := telemetry.Init(settings, build.Version); err != nil {
		// Reporting is best effort; the command still runs.
		rc.log.Warn("error reporting disabled", logger.Error(err))
	}

	rc.Store, err = openStore(settings, central)
	if err != nil {
		return rc, err
	}

	rc.Catalog = catalog.NewGormCatalog(rc.Store.DB(),
		catalog.WithLogger(central.Module("catalog")),
		catalog.WithTokenTTL(settings.Catalog.TokenTTL))
	if err := registerSources(rc.Catalog, settings.Catalog.Sources); err != nil {
		return rc, err
	}

	opts := []tagging.Option{
		tagging.WithLogger(central.Module("tagging")),
		tagging.WithLocale(entities.Locale(settings.Tagging.DefaultLocale)),
	}
	if settings.Metrics.Enabled {
		rc.Metrics, err = observability.NewMetrics()
		if err != nil {
			return rc, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		opts = append(opts, tagging.WithMetrics(rc.Metrics.Tagging))
	}

	rc.Engine, err = tagging.NewEngine(rc.Store, rc.Catalog, opts...)
	if err != nil {
		return rc, err
	}

	rc.log.Debug("runtime ready",
		logger.String("version", build.Version),
		logger.String("database", settings.Database.Type),
		logger.Int("catalog_sources", len(settings.Catalog.Sources)))
	return rc, nil
}

func openStore(settings *conf.Settings, central *logger.CentralLogger) (datastore.Manager, error) {
	db := settings.Database
	sqlLog := central.Module("datastore")

	store, err := datastore.Open(db.Type,
		datastore.Config{
			Path:          db.Path,
			TablePrefix:   db.TablePrefix,
			Logger:        sqlLog,
			SlowThreshold: db.SlowThreshold,
		},
		&datastore.MySQLConfig{
			Host:          db.MySQL.Host,
			Port:          db.MySQL.Port,
			Username:      db.MySQL.Username,
			Password:      db.MySQL.Password,
			Database:      db.MySQL.Database,
			TablePrefix:   db.TablePrefix,
			Logger:        sqlLog,
			SlowThreshold: db.SlowThreshold,
		})
	if err != nil {
		return nil, errors.New(err).
			Component("runtime").
			Category(errors.CategoryDatabase).
			Priority(errors.PriorityCritical).
			Context("database_type", db.Type).
			Build()
	}
	return store, nil
}

// registerSources registers configured host tables in token order so
// failures are reported deterministically.
func registerSources(cat *catalog.GormCatalog, sources map[string]conf.CatalogSource) error {
	tokens := make([]string, 0, len(sources))
	for token := range sources {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)

	for _, token := range tokens {
		src := sources[token]
		err := cat.Register(token, catalog.Source{
			Table:      src.Table,
			PrimaryKey: src.PrimaryKey,
			Columns:    src.Columns,
		})
		if err != nil {
			return fmt.Errorf("catalog source %q: %w", token, err)
		}
	}
	return nil
}

// RequireSchema fails when the tagging tables have not been migrated.
func (rc *Context) RequireSchema() error {
	if !rc.Store.Exists() {
		return errors.Newf("database %s has no tagging schema, run 'ctags migrate' first", rc.Store.Path()).
			Component("runtime").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// WithTrace returns ctx stamped with traceID for log correlation.
func (rc *Context) WithTrace(ctx context.Context, traceID string) context.Context {
	rc.log.Debug("command started", logger.String("trace_id", traceID))
	return logger.WithTraceID(ctx, traceID)
}

// Close writes the metrics textfile when enabled and releases every
// service. It is safe on a partially built Context.
func (rc *Context) Close() error {
	if rc == nil {
		return nil
	}

	var errs []error
	if rc.Metrics != nil {
		if err := rc.Metrics.WriteTextfile(rc.Settings.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if rc.Store != nil {
		if err := rc.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	telemetry.Shutdown()
	if rc.Logger != nil {
		if err := rc.Logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
