package tagging

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

// TagPage is one page of the tag administration listing.
type TagPage struct {
	Tags     []*entities.Tag
	Total    int64
	Page     int
	PageSize int
}

// AliasSuggestion pairs an alias with the tag it points at.
type AliasSuggestion struct {
	Alias *entities.TagAlias
	Tag   *entities.Tag
}

// normalizeName trims name and enforces the length limit.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n > entities.MaxTagLength {
		return "", invalidArgument("tag name is %d characters, at most %d allowed", n, entities.MaxTagLength)
	}
	return name, nil
}

// GetTag returns the tag with id.
func (e *Engine) GetTag(ctx context.Context, id uint) (tag *entities.Tag, err error) {
	start := time.Now()
	defer func() { err = e.observe(ctx, metrics.OpTagAdmin, start, err, logger.Uint64("tag_id", uint64(id))) }()

	return e.tags.GetByID(ctx, id)
}

// CreateTag inserts a tag with the given localized names. A zero id lets
// the database assign one. Duplicate names are constraint violations.
func (e *Engine) CreateTag(ctx context.Context, id uint, names map[entities.Locale]string) (tag *entities.Tag, err error) {
	start := time.Now()
	defer func() { err = e.observe(ctx, metrics.OpTagAdmin, start, err, logger.Uint64("tag_id", uint64(id))) }()

	tag = &entities.Tag{ID: id}
	for locale, name := range names {
		if !locale.Valid() {
			return nil, invalidArgument("unsupported locale %q", locale)
		}
		name, err := normalizeName(name)
		if err != nil {
			return nil, err
		}
		tag.SetName(locale, name)
	}

	if err := e.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns page (1-based) of all tags ordered by name in the display
// locale.
func (e *Engine) ListTags(ctx context.Context, page, pageSize int) (result *TagPage, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpTagAdmin, start, err, logger.Int("page", page), logger.Int("page_size", pageSize))
	}()

	if page < 1 || pageSize < 1 {
		return nil, invalidArgument("page and page size must be positive, got %d and %d", page, pageSize)
	}

	total, err := e.tags.Count(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := e.tags.List(ctx, e.locale, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &TagPage{Tags: tags, Total: total, Page: page, PageSize: pageSize}, nil
}

// SetName renames a tag in one locale. An empty name clears it.
func (e *Engine) SetName(ctx context.Context, id uint, locale entities.Locale, name string) (err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpTagAdmin, start, err,
			logger.Uint64("tag_id", uint64(id)), logger.String("locale", string(locale)))
	}()

	if !locale.Valid() {
		return invalidArgument("unsupported locale %q", locale)
	}
	name, err = normalizeName(name)
	if err != nil {
		return err
	}
	return e.tags.UpdateName(ctx, id, locale, name)
}

// SetApproved sets a tag's approval flag in one locale.
func (e *Engine) SetApproved(ctx context.Context, id uint, locale entities.Locale, approved bool) (err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpTagAdmin, start, err,
			logger.Uint64("tag_id", uint64(id)),
			logger.String("locale", string(locale)),
			logger.Bool("approved", approved))
	}()

	if !locale.Valid() {
		return invalidArgument("unsupported locale %q", locale)
	}
	return e.tags.UpdateApproved(ctx, id, locale, approved)
}

// CreateAlias adds an autocomplete alias for an existing tag.
func (e *Engine) CreateAlias(ctx context.Context, targetID uint, name string) (alias *entities.TagAlias, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpAliasWrite, start, err,
			logger.Uint64("tag_id", uint64(targetID)), logger.String("alias", name))
	}()

	name, err = normalizeName(name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, invalidArgument("alias name is empty")
	}
	if _, err := e.tags.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	alias = &entities.TagAlias{TargetID: targetID, Name: name}
	if err := e.aliases.Create(ctx, alias); err != nil {
		return nil, err
	}
	return alias, nil
}

// SuggestAliases returns up to limit aliases starting with prefix, ordered
// by alias name, each with its target tag.
func (e *Engine) SuggestAliases(ctx context.Context, prefix string, limit int) (out []AliasSuggestion, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpAliasSuggest, start, err,
			logger.String("prefix", prefix), logger.Int("count", len(out)))
	}()

	if limit < 1 {
		return nil, invalidArgument("suggestion limit must be positive, got %d", limit)
	}

	aliases, err := e.aliases.Suggest(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	if len(aliases) == 0 {
		return []AliasSuggestion{}, nil
	}

	ids := make([]uint, len(aliases))
	for i, a := range aliases {
		ids[i] = a.TargetID
	}
	byID, err := e.tags.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out = make([]AliasSuggestion, 0, len(aliases))
	for _, a := range aliases {
		if tag, ok := byID[a.TargetID]; ok {
			out = append(out, AliasSuggestion{Alias: a, Tag: tag})
		}
	}
	return out, nil
}

// AliasesForTag lists the aliases pointing at a tag, ordered by name.
func (e *Engine) AliasesForTag(ctx context.Context, tagID uint) (aliases []*entities.TagAlias, err error) {
	start := time.Now()
	defer func() { err = e.observe(ctx, metrics.OpAliasSuggest, start, err, logger.Uint64("tag_id", uint64(tagID))) }()

	return e.aliases.ListForTag(ctx, tagID)
}

// DeleteAlias removes an alias by id.
func (e *Engine) DeleteAlias(ctx context.Context, id uint) (err error) {
	start := time.Now()
	defer func() { err = e.observe(ctx, metrics.OpAliasWrite, start, err, logger.Uint64("alias_id", uint64(id))) }()

	return e.aliases.Delete(ctx, id)
}
