package tagging

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canonicaltags/ctags/internal/catalog"
	"github.com/canonicaltags/ctags/internal/datastore"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/datastore/repository"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

// Engine is the tag registry and query engine over one tagging database.
// It is safe for concurrent use; consistency relies on the database's
// transactions, not on in-process locks.
type Engine struct {
	db      *gorm.DB
	prefix  string
	catalog catalog.Adapter
	locale  entities.Locale
	log     logger.Logger
	metrics metrics.Recorder

	tags    repository.TagRepository
	aliases repository.AliasRepository
	assoc   repository.AssociationRepository
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithMetrics records per-operation metrics on r.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.metrics = r
		}
	}
}

// WithLocale sets the locale used to order tags by name. Defaults to English.
func WithLocale(l entities.Locale) Option {
	return func(e *Engine) {
		e.locale = l
	}
}

// NewEngine creates an engine over store's database. cat resolves entity
// types and hydrates entities for the host application.
func NewEngine(store datastore.Manager, cat catalog.Adapter, opts ...Option) (*Engine, error) {
	if store == nil || store.DB() == nil {
		return nil, invalidArgument("tagging: datastore is not open")
	}
	if cat == nil {
		return nil, invalidArgument("tagging: entity catalog is required")
	}

	e := &Engine{
		db:      store.DB(),
		prefix:  store.TablePrefix(),
		catalog: cat,
		locale:  entities.DefaultLocale,
		metrics: metrics.NopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.locale.Valid() {
		return nil, invalidArgument("tagging: unsupported display locale %q", e.locale)
	}
	if e.log == nil {
		e.log = logger.Global().Module("tagging")
	}

	e.tags = repository.NewTagRepository(e.db, e.prefix)
	e.aliases = repository.NewAliasRepository(e.db)
	e.assoc = repository.NewAssociationRepository(e.db, e.prefix)

	return e, nil
}

// Locale returns the display locale.
func (e *Engine) Locale() entities.Locale {
	return e.locale
}

// resolve maps an entity type token to its id through the catalog.
func (e *Engine) resolve(ctx context.Context, op, token string) (uint, error) {
	if token == "" {
		return 0, invalidArgument("entity type token is empty")
	}
	id, err := e.catalog.ResolveEntityType(ctx, token)
	if err != nil {
		return 0, adapterFailure(op, token, err)
	}
	return id, nil
}

// refiner composes a scope's predicate into association queries through the
// catalog. A scope without predicate yields a nil Refiner.
func (e *Engine) refiner(ctx context.Context, op string, scope Scope) repository.Refiner {
	if scope.Predicate == nil {
		return nil
	}
	return func(q *gorm.DB, entity clause.Column) (*gorm.DB, error) {
		refined, err := e.catalog.ApplyPredicate(ctx, q, entity, scope.Type, scope.Predicate)
		if err != nil {
			return nil, adapterFailure(op, scope.Type, err)
		}
		return refined, nil
	}
}

// observe records metrics and a debug line for a finished operation and
// returns err classified.
func (e *Engine) observe(ctx context.Context, op string, start time.Time, err error, fields ...logger.Field) error {
	elapsed := time.Since(start)
	e.metrics.RecordDuration(op, elapsed.Seconds())

	log := e.log.WithContext(ctx)
	if err != nil {
		err = classify(op, elapsed, err)
		e.metrics.RecordOperation(op, metrics.StatusError)
		e.metrics.RecordError(op, errorType(err))
		fields = append(fields,
			logger.String("operation", op),
			logger.Duration("duration", elapsed),
			logger.Error(err))
		// Caller mistakes and misses are routine; storage and adapter failures are not.
		if errors.IsNotFound(err) || errors.IsInvalidArgument(err) {
			log.Debug("tagging operation rejected", fields...)
		} else {
			log.Warn("tagging operation failed", fields...)
		}
		return err
	}

	e.metrics.RecordOperation(op, metrics.StatusSuccess)
	log.Debug("tagging operation completed",
		append(fields,
			logger.String("operation", op),
			logger.Duration("duration", elapsed))...)
	return nil
}

// recordResultSize forwards result sizes when the recorder supports them.
func (e *Engine) recordResultSize(op string, n int) {
	if r, ok := e.metrics.(interface{ RecordResultSize(string, int) }); ok {
		r.RecordResultSize(op, n)
	}
}

func (e *Engine) recordAssociationChanges(added, removed int) {
	if r, ok := e.metrics.(interface{ RecordAssociationChanges(int, int) }); ok {
		r.RecordAssociationChanges(added, removed)
	}
}

// txRepos builds repositories bound to a transaction.
func (e *Engine) txRepos(tx *gorm.DB) (repository.TagRepository, repository.AliasRepository, repository.AssociationRepository) {
	return repository.NewTagRepository(tx, e.prefix),
		repository.NewAliasRepository(tx),
		repository.NewAssociationRepository(tx, e.prefix)
}

// hydrate replaces tag counts with tags, keeping row order. Rows whose tag
// vanished between the aggregate and the lookup are skipped.
func (e *Engine) hydrate(ctx context.Context, rows []repository.TagCount, counts bool) ([]TagUsage, error) {
	if len(rows) == 0 {
		return []TagUsage{}, nil
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.TagID
	}
	byID, err := e.tags.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]TagUsage, 0, len(rows))
	for _, row := range rows {
		tag, ok := byID[row.TagID]
		if !ok {
			continue
		}
		usage := TagUsage{Tag: tag}
		if counts {
			usage.Count = row.Count
		}
		out = append(out, usage)
	}
	return out, nil
}

func checkCountOptions(opts CountOptions) (CountOptions, error) {
	if opts.MinCount < 0 {
		return opts, invalidArgument("min_count must be non-negative, got %d", opts.MinCount)
	}
	if opts.MinCount > 0 {
		opts.Counts = true
	}
	return opts, nil
}
