package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canonicaltags/ctags/internal/datastore/repository"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/logger"
)

const (
	// fetchBatchSize keeps IN lists below SQLite's bound-parameter limit.
	fetchBatchSize = 400

	// defaultTokenTTL bounds how long a resolved type id is trusted.
	defaultTokenTTL = 30 * time.Minute

	defaultPrimaryKey = "id"
)

// ErrUnknownSource is returned when no backing table is registered for a token.
var ErrUnknownSource = errors.NewStd("no catalog source registered for entity type")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Source describes the host table backing one entity type.
type Source struct {
	// Table is the host table name.
	Table string
	// PrimaryKey is the id column; defaults to "id".
	PrimaryKey string
	// Columns limits the hydrated columns. Empty selects all.
	Columns []string
}

// GormCatalog resolves entity types through the entity_types registry and
// reads entities from host tables in the same database.
type GormCatalog struct {
	db      *gorm.DB
	types   repository.EntityTypeRepository
	tokens  *cache.Cache
	log     logger.Logger
	mu      sync.RWMutex
	sources map[string]Source
}

// Option configures a GormCatalog.
type Option func(*GormCatalog)

// WithLogger sets the catalog logger.
func WithLogger(log logger.Logger) Option {
	return func(c *GormCatalog) {
		c.log = log
	}
}

// WithTokenTTL overrides how long resolved type ids stay cached.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *GormCatalog) {
		c.tokens = cache.New(ttl, 0)
	}
}

// NewGormCatalog creates a catalog over db. The token cache has no janitor
// goroutine; expired entries are dropped when read.
func NewGormCatalog(db *gorm.DB, opts ...Option) *GormCatalog {
	c := &GormCatalog{
		db:      db,
		types:   repository.NewEntityTypeRepository(db),
		tokens:  cache.New(defaultTokenTTL, 0),
		sources: make(map[string]Source),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Global().Module("catalog")
	}
	return c
}

// Register binds an entity type token to a host table.
func (c *GormCatalog) Register(token string, src Source) error {
	if token == "" {
		return errors.Newf("catalog: empty entity type token").
			Component("catalog").
			Category(errors.CategoryValidation).
			Build()
	}
	if src.PrimaryKey == "" {
		src.PrimaryKey = defaultPrimaryKey
	}
	for _, name := range append([]string{src.Table, src.PrimaryKey}, src.Columns...) {
		if !identifierPattern.MatchString(name) {
			return errors.Newf("catalog: invalid identifier %q for entity type %q", name, token).
				Component("catalog").
				Category(errors.CategoryValidation).
				Context("entity_type", token).
				Build()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[token] = src
	return nil
}

func (c *GormCatalog) source(token string) (Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.sources[token]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownSource, token)
	}
	return src, nil
}

// ResolveEntityType maps a token to its id via the cache, then the registry.
func (c *GormCatalog) ResolveEntityType(ctx context.Context, token string) (uint, error) {
	if id, ok := c.tokens.Get(token); ok {
		return id.(uint), nil
	}

	et, err := c.types.GetOrCreate(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("resolve entity type %q: %w", token, err)
	}

	c.tokens.SetDefault(token, et.ID)
	c.log.Debug("entity type resolved", logger.String("entity_type", token), logger.Uint64("entity_type_id", uint64(et.ID)))
	return et.ID, nil
}

// Forget drops a cached token, e.g. after the registry row was removed.
func (c *GormCatalog) Forget(token string) {
	c.tokens.Delete(token)
}

// BulkFetch loads records in chunks and reorders them to follow ids.
func (c *GormCatalog) BulkFetch(ctx context.Context, token string, ids []uint) ([]Record, error) {
	src, err := c.source(token)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pk := clause.Column{Name: src.PrimaryKey}
	byID := make(map[uint]map[string]any, len(ids))
	for start := 0; start < len(ids); start += fetchBatchSize {
		batch := ids[start:min(start+fetchBatchSize, len(ids))]

		q := c.db.WithContext(ctx).Table(src.Table).Where("? IN ?", pk, batch)
		if len(src.Columns) > 0 {
			q = q.Select(append([]string{src.PrimaryKey}, src.Columns...))
		}

		var rows []map[string]any
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("fetch %s rows: %w", token, err)
		}
		for _, row := range rows {
			id, ok := toUint(row[src.PrimaryKey])
			if !ok {
				return nil, fmt.Errorf("fetch %s rows: unsupported primary key value %T", token, row[src.PrimaryKey])
			}
			byID[id] = row
		}
	}

	records := make([]Record, 0, len(byID))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		records = append(records, Record{ID: id, Fields: row})
	}
	return records, nil
}

// ApplyPredicate composes `entity IN (SELECT pk FROM table WHERE pred)` onto base.
func (c *GormCatalog) ApplyPredicate(_ context.Context, base *gorm.DB, entity clause.Column, token string, pred Predicate) (*gorm.DB, error) {
	if pred == nil {
		return base, nil
	}
	src, err := c.source(token)
	if err != nil {
		return nil, err
	}

	sub := c.db.Table(src.Table).Select("?", clause.Column{Name: src.PrimaryKey})
	sub = pred(sub)
	if sub == nil {
		return nil, fmt.Errorf("predicate for %q returned no query", token)
	}
	if sub.Error != nil {
		return nil, fmt.Errorf("predicate for %q: %w", token, sub.Error)
	}

	return base.Where("? IN (?)", entity, sub), nil
}

func toUint(v any) (uint, bool) {
	switch n := v.(type) {
	case int64:
		return uint(n), n >= 0
	case int32:
		return uint(n), n >= 0
	case int:
		return uint(n), n >= 0
	case uint64:
		return uint(n), true
	case uint32:
		return uint(n), true
	case uint:
		return n, true
	case []byte:
		var id uint
		_, err := fmt.Sscan(string(n), &id)
		return id, err == nil
	default:
		return 0, false
	}
}
