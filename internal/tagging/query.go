package tagging

import (
	"context"
	"time"

	"github.com/canonicaltags/ctags/internal/catalog"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

// Usage groups the associations of scope by tag. With counts requested each
// entry carries the number of entities in scope using the tag; MinCount
// filters groups after counting. Entries are ordered by tag id. A scope
// without associations yields an empty slice.
func (e *Engine) Usage(ctx context.Context, scope Scope, opts CountOptions) (usage []TagUsage, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpUsage, start, err,
			logger.String("entity_type", scope.Type),
			logger.Bool("predicate", scope.Predicate != nil),
			logger.Int("min_count", opts.MinCount),
			logger.Int("count", len(usage)))
	}()

	opts, err = checkCountOptions(opts)
	if err != nil {
		return nil, err
	}

	typeID, err := e.resolve(ctx, metrics.OpUsage, scope.Type)
	if err != nil {
		return nil, err
	}

	rows, err := e.assoc.UsageCounts(ctx, typeID, e.refiner(ctx, metrics.OpUsage, scope), int64(opts.MinCount))
	if err != nil {
		return nil, err
	}

	usage, err = e.hydrate(ctx, rows, opts.Counts)
	if err != nil {
		return nil, err
	}
	e.recordResultSize(metrics.OpUsage, len(usage))
	return usage, nil
}

// RelatedForTags returns the tags, other than tagIDs, carried by entities of
// entityType that carry every tag in tagIDs. Entries are ordered by name in
// the display locale, then id. An empty tagIDs yields an empty slice.
func (e *Engine) RelatedForTags(ctx context.Context, tagIDs []uint, entityType string, opts CountOptions) (related []TagUsage, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpRelatedTags, start, err,
			logger.String("entity_type", entityType),
			logger.Int("input_tags", len(tagIDs)),
			logger.Int("count", len(related)))
	}()

	opts, err = checkCountOptions(opts)
	if err != nil {
		return nil, err
	}

	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return []TagUsage{}, nil
	}

	typeID, err := e.resolve(ctx, metrics.OpRelatedTags, entityType)
	if err != nil {
		return nil, err
	}

	rows, err := e.assoc.CoOccurringCounts(ctx, typeID, ids, int64(opts.MinCount), e.locale)
	if err != nil {
		return nil, err
	}

	related, err = e.hydrate(ctx, rows, opts.Counts)
	if err != nil {
		return nil, err
	}
	e.recordResultSize(metrics.OpRelatedTags, len(related))
	return related, nil
}

// MembersWithAll returns the entities of scope carrying every tag in tagIDs,
// ordered by id. An empty tagIDs yields no entities.
func (e *Engine) MembersWithAll(ctx context.Context, scope Scope, tagIDs []uint) (refs []EntityRef, err error) {
	return e.members(ctx, metrics.OpMembersWithAll, scope, tagIDs, true)
}

// MembersWithAny returns the entities of scope carrying at least one tag in
// tagIDs, ordered by id. An empty tagIDs yields no entities.
func (e *Engine) MembersWithAny(ctx context.Context, scope Scope, tagIDs []uint) (refs []EntityRef, err error) {
	return e.members(ctx, metrics.OpMembersWithAny, scope, tagIDs, false)
}

func (e *Engine) members(ctx context.Context, op string, scope Scope, tagIDs []uint, all bool) (refs []EntityRef, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, op, start, err,
			logger.String("entity_type", scope.Type),
			logger.Int("input_tags", len(tagIDs)),
			logger.Int("count", len(refs)))
	}()

	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return []EntityRef{}, nil
	}

	typeID, err := e.resolve(ctx, op, scope.Type)
	if err != nil {
		return nil, err
	}

	refine := e.refiner(ctx, op, scope)
	var entityIDs []uint
	if all {
		entityIDs, err = e.assoc.EntitiesWithAll(ctx, typeID, ids, refine)
	} else {
		entityIDs, err = e.assoc.EntitiesWithAny(ctx, typeID, ids, refine)
	}
	if err != nil {
		return nil, err
	}

	refs = make([]EntityRef, len(entityIDs))
	for i, id := range entityIDs {
		refs[i] = EntityRef{Type: scope.Type, ID: id}
	}
	e.recordResultSize(op, len(refs))
	return refs, nil
}

// RelatedEntities ranks the entities of target sharing at least one tag with
// source by the number of shared tags, descending, ties by id. source itself
// is never returned. limit > 0 keeps the top limit entries after ranking.
func (e *Engine) RelatedEntities(ctx context.Context, source EntityRef, target Scope, limit int) (related []RelatedEntity, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpRelatedEntities, start, err,
			logger.String("source", source.String()),
			logger.String("target_type", target.Type),
			logger.Int("limit", limit),
			logger.Int("count", len(related)))
	}()

	if limit < 0 {
		return nil, invalidArgument("limit must be non-negative, got %d", limit)
	}

	sourceTypeID, err := e.resolve(ctx, metrics.OpRelatedEntities, source.Type)
	if err != nil {
		return nil, err
	}
	targetTypeID := sourceTypeID
	if target.Type != source.Type {
		if targetTypeID, err = e.resolve(ctx, metrics.OpRelatedEntities, target.Type); err != nil {
			return nil, err
		}
	}

	scores, err := e.assoc.RelatedEntities(ctx, sourceTypeID, source.ID, targetTypeID,
		e.refiner(ctx, metrics.OpRelatedEntities, target), limit)
	if err != nil {
		return nil, err
	}

	related = make([]RelatedEntity, len(scores))
	for i, s := range scores {
		related[i] = RelatedEntity{Ref: EntityRef{Type: target.Type, ID: s.EntityID}, Shared: s.Shared}
	}
	e.recordResultSize(metrics.OpRelatedEntities, len(related))
	return related, nil
}

// RelatedRecords is RelatedEntities hydrated through the catalog, keeping
// the ranking order. Entities deleted from the host store are excluded
// before limit is applied, so they never take a slot in the top entries.
func (e *Engine) RelatedRecords(ctx context.Context, source EntityRef, target Scope, limit int) ([]catalog.Record, error) {
	if target.Predicate == nil {
		target.Predicate = catalog.Existing
	}
	related, err := e.RelatedEntities(ctx, source, target, limit)
	if err != nil {
		return nil, err
	}
	if len(related) == 0 {
		return []catalog.Record{}, nil
	}

	ids := make([]uint, len(related))
	for i, r := range related {
		ids[i] = r.Ref.ID
	}

	start := time.Now()
	records, err := e.catalog.BulkFetch(ctx, target.Type, ids)
	if err != nil {
		err = adapterFailure(metrics.OpCatalogFetch, target.Type, err)
	}
	if err := e.observe(ctx, metrics.OpCatalogFetch, start, err,
		logger.String("entity_type", target.Type), logger.Int("requested", len(ids))); err != nil {
		return nil, err
	}
	return records, nil
}

// DistinctTags returns the tags used by at least one entity of entityType,
// ordered by name in the display locale.
func (e *Engine) DistinctTags(ctx context.Context, entityType string) (tags []*entities.Tag, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpUsage, start, err,
			logger.String("entity_type", entityType), logger.Int("count", len(tags)))
	}()

	typeID, err := e.resolve(ctx, metrics.OpUsage, entityType)
	if err != nil {
		return nil, err
	}
	ids, err := e.assoc.DistinctTagIDs(ctx, typeID)
	if err != nil {
		return nil, err
	}
	byID, err := e.tags.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	tags = make([]*entities.Tag, 0, len(byID))
	for _, id := range ids {
		if tag, ok := byID[id]; ok {
			tags = append(tags, tag)
		}
	}
	sortByName(tags, e.locale)
	return tags, nil
}
