// Package fixtures dumps and loads the tag vocabulary and its aliases as YAML.
//
// A fixture file is idempotent: loading it twice leaves the database in the
// same state as loading it once. Tags are upserted by id and aliases by name.
package fixtures

import (
	"context"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/canonicaltags/ctags/internal/datastore"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/datastore/repository"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/tagging"
)

// FormatVersion is written to every dump and checked on load.
const FormatVersion = 1

const componentFixtures = "fixtures"

// Document is the root of a fixture file.
type Document struct {
	Version int     `yaml:"version"`
	Tags    []Tag   `yaml:"tags"`
	Aliases []Alias `yaml:"aliases,omitempty"`
}

// Tag is one vocabulary entry. Names are keyed by locale code.
type Tag struct {
	ID       uint              `yaml:"id"`
	Names    map[string]string `yaml:"names,omitempty"`
	Approved []string          `yaml:"approved,omitempty"`
}

// Alias points an autocomplete string at a tag id.
type Alias struct {
	Name string `yaml:"name"`
	Tag  uint   `yaml:"tag"`
}

// LoadResult reports what a load wrote.
type LoadResult struct {
	Tags    int
	Aliases int
}

// Dump writes every tag, ordered by id, and every alias, ordered by name
// under the collation of locale.
func Dump(ctx context.Context, store datastore.Manager, locale entities.Locale, w io.Writer) error {
	doc, err := Export(ctx, store, locale)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.New(err).
			Component(componentFixtures).
			Category(errors.CategoryFileIO).
			Context("operation", "dump").
			Build()
	}
	return enc.Close()
}

// Export reads the vocabulary into a Document.
func Export(ctx context.Context, store datastore.Manager, locale entities.Locale) (*Document, error) {
	if !locale.Valid() {
		return nil, invalidFixture("unsupported locale %q", locale)
	}

	db := store.DB()
	tags, err := repository.NewTagRepository(db, store.TablePrefix()).List(ctx, locale, 0, 0)
	if err != nil {
		return nil, databaseError("export_tags", err)
	}
	aliases, err := repository.NewAliasRepository(db).List(ctx)
	if err != nil {
		return nil, databaseError("export_aliases", err)
	}

	doc := &Document{Version: FormatVersion, Tags: make([]Tag, 0, len(tags)), Aliases: make([]Alias, 0, len(aliases))}
	for _, t := range tags {
		doc.Tags = append(doc.Tags, fromEntity(t))
	}
	slices.SortFunc(doc.Tags, func(a, b Tag) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	for _, a := range aliases {
		doc.Aliases = append(doc.Aliases, Alias{Name: a.Name, Tag: a.TargetID})
	}
	coll := tagging.Collator(locale)
	slices.SortStableFunc(doc.Aliases, func(a, b Alias) int {
		return coll.CompareString(a.Name, b.Name)
	})

	return doc, nil
}

func fromEntity(t *entities.Tag) Tag {
	out := Tag{ID: t.ID}
	for _, l := range entities.Locales {
		if name := t.Name(l); name != "" {
			if out.Names == nil {
				out.Names = make(map[string]string, len(entities.Locales))
			}
			out.Names[string(l)] = name
		}
		if t.Approved(l) {
			out.Approved = append(out.Approved, string(l))
		}
	}
	return out
}

// Decode parses and validates a fixture document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, invalidFixture("fixture document is empty")
		}
		return nil, errors.New(err).
			Component(componentFixtures).
			Category(errors.CategoryFileParsing).
			Build()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks ids, locales, name lengths and uniqueness within the
// document. Alias targets must be tags of the document or already stored.
func (d *Document) Validate() error {
	if d.Version != FormatVersion {
		return invalidFixture("unsupported fixture version %d", d.Version)
	}

	ids := make(map[uint]struct{}, len(d.Tags))
	names := make(map[string]uint)
	for _, t := range d.Tags {
		if t.ID == 0 {
			return invalidFixture("tag id must be positive")
		}
		if _, dup := ids[t.ID]; dup {
			return invalidFixture("tag %d appears more than once", t.ID)
		}
		ids[t.ID] = struct{}{}

		for code, name := range t.Names {
			if _, err := entities.ParseLocale(code); err != nil {
				return invalidFixture("tag %d: %v", t.ID, err)
			}
			name = strings.TrimSpace(name)
			if utf8.RuneCountInString(name) > entities.MaxTagLength {
				return invalidFixture("tag %d: %s name exceeds %d characters", t.ID, code, entities.MaxTagLength)
			}
			if name == "" {
				continue
			}
			key := code + "\x00" + name
			if other, dup := names[key]; dup {
				return invalidFixture("tags %d and %d share the %s name %q", other, t.ID, code, name)
			}
			names[key] = t.ID
		}
		for _, code := range t.Approved {
			if _, err := entities.ParseLocale(code); err != nil {
				return invalidFixture("tag %d: %v", t.ID, err)
			}
		}
	}

	aliases := make(map[string]struct{}, len(d.Aliases))
	for _, a := range d.Aliases {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return invalidFixture("alias name is empty")
		}
		if utf8.RuneCountInString(name) > entities.MaxTagLength {
			return invalidFixture("alias %q exceeds %d characters", name, entities.MaxTagLength)
		}
		if a.Tag == 0 {
			return invalidFixture("alias %q has no target tag", name)
		}
		if _, dup := aliases[name]; dup {
			return invalidFixture("alias %q appears more than once", name)
		}
		aliases[name] = struct{}{}
	}
	return nil
}

// Load decodes r and applies it in one transaction.
func Load(ctx context.Context, store datastore.Manager, r io.Reader) (*LoadResult, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, store, doc)
}

// Apply upserts every tag and alias of doc in one transaction. Nothing is
// written when any entry fails.
func Apply(ctx context.Context, store datastore.Manager, doc *Document) (*LoadResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	log := logger.Global().Module(componentFixtures)
	result := &LoadResult{}

	err := store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := repository.NewTagRepository(tx, store.TablePrefix())
		aliases := repository.NewAliasRepository(tx)

		for _, t := range doc.Tags {
			if err := tags.Upsert(ctx, toEntity(t)); err != nil {
				return conflictOrDatabase("load_tag", err).Context("tag_id", t.ID).Build()
			}
			result.Tags++
		}

		for _, a := range doc.Aliases {
			if _, err := tags.GetByID(ctx, a.Tag); err != nil {
				if errors.Is(err, repository.ErrTagNotFound) {
					return invalidFixture("alias %q targets unknown tag %d", a.Name, a.Tag)
				}
				return databaseError("load_alias", err)
			}
			alias := &entities.TagAlias{TargetID: a.Tag, Name: strings.TrimSpace(a.Name)}
			if err := aliases.Upsert(ctx, alias); err != nil {
				return conflictOrDatabase("load_alias", err).Context("alias", a.Name).Build()
			}
			result.Aliases++
		}
		return nil
	})
	if err != nil {
		log.Warn("fixture load failed", logger.Error(err))
		return nil, err
	}

	log.Info("fixtures loaded",
		logger.Int("tags", result.Tags),
		logger.Int("aliases", result.Aliases))
	return result, nil
}

func toEntity(t Tag) *entities.Tag {
	tag := &entities.Tag{ID: t.ID}
	for code, name := range t.Names {
		tag.SetName(entities.Locale(code), strings.TrimSpace(name))
	}
	for _, code := range t.Approved {
		tag.SetApproved(entities.Locale(code), true)
	}
	return tag
}

func invalidFixture(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(componentFixtures).
		Category(errors.CategoryValidation).
		Build()
}

func databaseError(op string, err error) error {
	return errors.New(err).
		Component(componentFixtures).
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Build()
}

func conflictOrDatabase(op string, err error) *errors.ErrorBuilder {
	category := errors.CategoryDatabase
	if errors.Is(err, repository.ErrDuplicateKey) {
		category = errors.CategoryConflict
	}
	return errors.New(err).
		Component(componentFixtures).
		Category(category).
		Context("operation", op)
}
