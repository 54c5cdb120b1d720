package tagging

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

// DeleteEntity removes every association of ref. Hosts call it when they
// destroy the entity; the engine has no other way to learn about it.
// It returns the number of associations removed.
func (e *Engine) DeleteEntity(ctx context.Context, ref EntityRef) (removed int64, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpDeleteEntity, start, err,
			logger.String("entity", ref.String()), logger.Int64("removed", removed))
	}()

	typeID, err := e.resolve(ctx, metrics.OpDeleteEntity, ref.Type)
	if err != nil {
		return 0, err
	}
	removed, err = e.assoc.DeleteForEntity(ctx, typeID, ref.ID)
	if err != nil {
		return 0, err
	}
	e.recordAssociationChanges(0, int(removed))
	return removed, nil
}

// DeleteTag removes a tag together with its aliases and associations in one
// transaction.
func (e *Engine) DeleteTag(ctx context.Context, id uint) (err error) {
	start := time.Now()
	var links, aliasCount int64
	defer func() {
		err = e.observe(ctx, metrics.OpDeleteTag, start, err,
			logger.Uint64("tag_id", uint64(id)),
			logger.Int64("associations", links),
			logger.Int64("aliases", aliasCount))
	}()

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, aliases, assoc := e.txRepos(tx)

		if _, err := tags.GetByID(ctx, id); err != nil {
			return err
		}

		var err error
		if aliasCount, err = aliases.DeleteForTag(ctx, id); err != nil {
			return err
		}
		if links, err = assoc.DeleteForTag(ctx, id); err != nil {
			return err
		}
		return tags.Delete(ctx, id)
	})
	if err != nil {
		links, aliasCount = 0, 0
		return err
	}

	e.recordAssociationChanges(0, int(links))
	e.log.WithContext(ctx).Info("tag deleted",
		logger.Uint64("tag_id", uint64(id)),
		logger.Int64("associations", links),
		logger.Int64("aliases", aliasCount))
	return nil
}
