package tagging

import (
	"context"

	"github.com/canonicaltags/ctags/internal/catalog"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// TaggedEntity exposes the tags of one entity.
type TaggedEntity struct {
	engine *Engine
	ref    EntityRef
}

// Tagged returns the tagging facade for ref.
func (e *Engine) Tagged(ref EntityRef) *TaggedEntity {
	return &TaggedEntity{engine: e, ref: ref}
}

// Ref returns the wrapped entity reference.
func (t *TaggedEntity) Ref() EntityRef {
	return t.ref
}

// GetTags returns the entity's tags ordered by display name.
func (t *TaggedEntity) GetTags(ctx context.Context) ([]*entities.Tag, error) {
	return t.engine.TagsForEntity(ctx, t.ref)
}

// ReplaceTags makes the entity's tags exactly tagIDs.
func (t *TaggedEntity) ReplaceTags(ctx context.Context, tagIDs []uint) error {
	return t.engine.ReplaceTags(ctx, t.ref, tagIDs)
}

// ClearTags removes every tag from the entity.
func (t *TaggedEntity) ClearTags(ctx context.Context) error {
	return t.engine.ReplaceTags(ctx, t.ref, nil)
}

// AddTagByName applies the existing tag named name in locale, if any.
func (t *TaggedEntity) AddTagByName(ctx context.Context, locale entities.Locale, name string) (bool, error) {
	return t.engine.AddTagByName(ctx, t.ref, locale, name)
}

// Related ranks entities of the same type by shared tags.
func (t *TaggedEntity) Related(ctx context.Context, limit int) ([]RelatedEntity, error) {
	return t.engine.RelatedEntities(ctx, t.ref, Scope{Type: t.ref.Type}, limit)
}

// TypeScope runs registry and query operations against one entity type.
type TypeScope struct {
	engine *Engine
	token  string
}

// ForType returns the scoped manager for entity type token.
func (e *Engine) ForType(token string) *TypeScope {
	return &TypeScope{engine: e, token: token}
}

// Token returns the entity type token.
func (s *TypeScope) Token() string {
	return s.token
}

func (s *TypeScope) scope(pred catalog.Predicate) Scope {
	return Scope{Type: s.token, Predicate: pred}
}

// Tags returns the tags used by at least one entity of the type.
func (s *TypeScope) Tags(ctx context.Context) ([]*entities.Tag, error) {
	return s.engine.DistinctTags(ctx, s.token)
}

// Usage aggregates tag usage over the type, optionally narrowed by pred.
func (s *TypeScope) Usage(ctx context.Context, pred catalog.Predicate, opts CountOptions) ([]TagUsage, error) {
	return s.engine.Usage(ctx, s.scope(pred), opts)
}

// Cloud computes a tag cloud over the type, optionally narrowed by pred.
func (s *TypeScope) Cloud(ctx context.Context, pred catalog.Predicate, opts CloudOptions) ([]CloudTag, error) {
	return s.engine.Cloud(ctx, s.scope(pred), opts)
}

// Related returns tags co-occurring with every tag in tagIDs on entities of the type.
func (s *TypeScope) Related(ctx context.Context, tagIDs []uint, opts CountOptions) ([]TagUsage, error) {
	return s.engine.RelatedForTags(ctx, tagIDs, s.token, opts)
}

// WithAll returns entities of the type carrying every tag in tagIDs.
func (s *TypeScope) WithAll(ctx context.Context, pred catalog.Predicate, tagIDs []uint) ([]EntityRef, error) {
	return s.engine.MembersWithAll(ctx, s.scope(pred), tagIDs)
}

// WithAny returns entities of the type carrying any tag in tagIDs.
func (s *TypeScope) WithAny(ctx context.Context, pred catalog.Predicate, tagIDs []uint) ([]EntityRef, error) {
	return s.engine.MembersWithAny(ctx, s.scope(pred), tagIDs)
}

// RelatedTo ranks entities of the type by the tags they share with source.
func (s *TypeScope) RelatedTo(ctx context.Context, source EntityRef, pred catalog.Predicate, limit int) ([]RelatedEntity, error) {
	return s.engine.RelatedEntities(ctx, source, s.scope(pred), limit)
}

// Entity returns the tagging facade for entity id of the type.
func (s *TypeScope) Entity(id uint) *TaggedEntity {
	return s.engine.Tagged(EntityRef{Type: s.token, ID: id})
}
