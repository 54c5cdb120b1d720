package tagging

import (
	"context"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/datastore/repository"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

// GetOrCreate returns the tag with id, creating it with blank names if it
// does not exist yet.
func (e *Engine) GetOrCreate(ctx context.Context, id uint) (tag *entities.Tag, err error) {
	start := time.Now()
	defer func() { err = e.observe(ctx, metrics.OpGetOrCreate, start, err, logger.Uint64("tag_id", uint64(id))) }()

	if id == 0 {
		return nil, invalidArgument("tag id must be positive")
	}
	tag, created, err := e.tags.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	if created {
		e.log.WithContext(ctx).Info("tag created", logger.Uint64("tag_id", uint64(id)))
	}
	return tag, nil
}

// FindByLocaleName returns the tag whose name in locale is exactly name.
// A miss is reported as a not-found error.
func (e *Engine) FindByLocaleName(ctx context.Context, locale entities.Locale, name string) (tag *entities.Tag, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpFindByName, start, err,
			logger.String("locale", string(locale)), logger.String("name", name))
	}()

	if !locale.Valid() {
		return nil, invalidArgument("unsupported locale %q", locale)
	}
	if name == "" {
		return nil, invalidArgument("tag name is empty")
	}
	return e.tags.GetByLocaleName(ctx, locale, name)
}

// ReplaceTags makes the tags of ref exactly tagIDs. Links to tags no longer
// wanted are removed and links to new tags are created, creating unseen tags
// on the way. The change commits as one transaction or not at all.
func (e *Engine) ReplaceTags(ctx context.Context, ref EntityRef, tagIDs []uint) (err error) {
	start := time.Now()
	var added, removed []uint
	defer func() {
		err = e.observe(ctx, metrics.OpReplaceTags, start, err,
			logger.String("entity", ref.String()),
			logger.Int("added", len(added)),
			logger.Int("removed", len(removed)))
	}()

	if slices.Contains(tagIDs, 0) {
		return invalidArgument("tag id must be positive")
	}
	target := uniqueIDs(tagIDs)

	typeID, err := e.resolve(ctx, metrics.OpReplaceTags, ref.Type)
	if err != nil {
		return err
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, _, assoc := e.txRepos(tx)

		// Writers of the same entity type take turns so two replacements
		// never diff against the same snapshot.
		if err := repository.NewEntityTypeRepository(tx).LockForUpdate(ctx, typeID); err != nil {
			return err
		}

		current, err := assoc.TagIDsForEntity(ctx, typeID, ref.ID)
		if err != nil {
			return err
		}

		added, removed = diffIDs(current, target)

		if len(removed) > 0 {
			if _, err := assoc.UnlinkMany(ctx, removed, typeID, ref.ID); err != nil {
				return err
			}
		}
		for _, id := range added {
			if _, _, err := tags.GetOrCreate(ctx, id); err != nil {
				return err
			}
		}
		if len(added) > 0 {
			if err := assoc.LinkMany(ctx, added, typeID, ref.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		added, removed = nil, nil
		return err
	}

	e.recordAssociationChanges(len(added), len(removed))
	return nil
}

// AddTagByName links ref to the existing tag named name in locale. Unknown
// names are ignored: only canonical tags can be applied this way. The result
// reports whether a tag matched.
func (e *Engine) AddTagByName(ctx context.Context, ref EntityRef, locale entities.Locale, name string) (matched bool, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpAddTagByName, start, err,
			logger.String("entity", ref.String()),
			logger.String("locale", string(locale)),
			logger.Bool("matched", matched))
	}()

	if !locale.Valid() {
		return false, invalidArgument("unsupported locale %q", locale)
	}

	typeID, err := e.resolve(ctx, metrics.OpAddTagByName, ref.Type)
	if err != nil {
		return false, err
	}

	tag, err := e.tags.GetByLocaleName(ctx, locale, name)
	if errors.Is(err, repository.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := e.assoc.Link(ctx, tag.ID, typeID, ref.ID); err != nil {
		return false, err
	}
	return true, nil
}

// TagsForEntity returns the tags of ref ordered by name in the display locale.
func (e *Engine) TagsForEntity(ctx context.Context, ref EntityRef) (tags []*entities.Tag, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpTagsForEntity, start, err,
			logger.String("entity", ref.String()), logger.Int("count", len(tags)))
	}()

	typeID, err := e.resolve(ctx, metrics.OpTagsForEntity, ref.Type)
	if err != nil {
		return nil, err
	}
	return e.assoc.TagsForEntity(ctx, typeID, ref.ID, e.locale)
}

// Link associates an existing tag with ref. Linking twice is a no-op.
func (e *Engine) Link(ctx context.Context, tagID uint, ref EntityRef) (err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpLink, start, err,
			logger.String("entity", ref.String()), logger.Uint64("tag_id", uint64(tagID)))
	}()

	typeID, err := e.resolve(ctx, metrics.OpLink, ref.Type)
	if err != nil {
		return err
	}
	if _, err := e.tags.GetByID(ctx, tagID); err != nil {
		return err
	}
	return e.assoc.Link(ctx, tagID, typeID, ref.ID)
}

// CreateAssociation links an existing tag with ref and reports a
// constraint violation if the link already exists.
func (e *Engine) CreateAssociation(ctx context.Context, tagID uint, ref EntityRef) (err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpLink, start, err,
			logger.String("entity", ref.String()), logger.Uint64("tag_id", uint64(tagID)))
	}()

	typeID, err := e.resolve(ctx, metrics.OpLink, ref.Type)
	if err != nil {
		return err
	}
	if _, err := e.tags.GetByID(ctx, tagID); err != nil {
		return err
	}
	if err := e.assoc.Create(ctx, tagID, typeID, ref.ID); err != nil {
		return err
	}
	e.recordAssociationChanges(1, 0)
	return nil
}

// UnlinkMany removes the links between tagIDs and ref and returns how many
// existed.
func (e *Engine) UnlinkMany(ctx context.Context, tagIDs []uint, ref EntityRef) (n int64, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpUnlink, start, err,
			logger.String("entity", ref.String()), logger.Int64("removed", n))
	}()

	typeID, err := e.resolve(ctx, metrics.OpUnlink, ref.Type)
	if err != nil {
		return 0, err
	}
	n, err = e.assoc.UnlinkMany(ctx, uniqueIDs(tagIDs), typeID, ref.ID)
	if err != nil {
		return 0, err
	}
	e.recordAssociationChanges(0, int(n))
	return n, nil
}

// uniqueIDs returns ids sorted ascending without duplicates or zeros.
func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// diffIDs returns the ids of target missing from current and the ids of
// current missing from target. Both inputs must be sorted and unique.
func diffIDs(current, target []uint) (added, removed []uint) {
	i, j := 0, 0
	for i < len(current) && j < len(target) {
		switch {
		case current[i] == target[j]:
			i++
			j++
		case current[i] < target[j]:
			removed = append(removed, current[i])
			i++
		default:
			added = append(added, target[j])
			j++
		}
	}
	removed = append(removed, current[i:]...)
	added = append(added, target[j:]...)
	return added, removed
}
