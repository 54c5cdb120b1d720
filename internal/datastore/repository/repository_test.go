package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

const testPrefix = "t_"

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "repo.db") + "?_foreign_keys=ON&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{TablePrefix: testPrefix},
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func namedTag(id uint, en string) *entities.Tag {
	tag := &entities.Tag{ID: id}
	tag.SetName(entities.LocaleEn, en)
	return tag
}

// seedScenario builds posts A(1){x,y}, B(2){x}, C(3){y,z} and returns the post type id.
func seedScenario(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	ctx := context.Background()

	tags := NewTagRepository(db, testPrefix)
	for _, tag := range []*entities.Tag{namedTag(1, "x"), namedTag(2, "y"), namedTag(3, "z")} {
		require.NoError(t, tags.Create(ctx, tag))
	}

	post, err := NewEntityTypeRepository(db).GetOrCreate(ctx, "post")
	require.NoError(t, err)

	assoc := NewAssociationRepository(db, testPrefix)
	require.NoError(t, assoc.LinkMany(ctx, []uint{1, 2}, post.ID, 1))
	require.NoError(t, assoc.LinkMany(ctx, []uint{1}, post.ID, 2))
	require.NoError(t, assoc.LinkMany(ctx, []uint{2, 3}, post.ID, 3))
	return post.ID
}

func TestTagRepositoryGetOrCreate(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewTagRepository(db, testPrefix)
	ctx := context.Background()

	tag, created, err := repo.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(42), tag.ID)
	assert.Nil(t, tag.NameEn)

	again, created, err := repo.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)

	_, _, err = repo.GetOrCreate(ctx, 43)
	require.NoError(t, err, "several blank tags may coexist")

	_, _, err = repo.GetOrCreate(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTagRepositoryLocaleLookup(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewTagRepository(db, testPrefix)
	ctx := context.Background()

	tag := namedTag(1, "cat")
	tag.SetName(entities.LocaleJa, "猫")
	require.NoError(t, repo.Create(ctx, tag))

	found, err := repo.GetByLocaleName(ctx, entities.LocaleJa, "猫")
	require.NoError(t, err)
	assert.Equal(t, uint(1), found.ID)

	_, err = repo.GetByLocaleName(ctx, entities.LocaleEs, "cat")
	require.ErrorIs(t, err, ErrTagNotFound)

	_, err = repo.GetByLocaleName(ctx, entities.Locale("de"), "cat")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTagRepositoryUpdateName(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewTagRepository(db, testPrefix)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, namedTag(1, "cat")))
	require.NoError(t, repo.Create(ctx, namedTag(2, "dog")))

	err := repo.UpdateName(ctx, 2, entities.LocaleEn, "cat")
	require.ErrorIs(t, err, ErrDuplicateKey)

	require.NoError(t, repo.UpdateName(ctx, 2, entities.LocaleEn, ""))
	cleared, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, cleared.NameEn)

	require.NoError(t, repo.UpdateApproved(ctx, 1, entities.LocalePt, true))
	approved, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, approved.ApprovedPt)

	require.ErrorIs(t, repo.UpdateName(ctx, 99, entities.LocaleEn, "bird"), ErrTagNotFound)
}

func TestTagRepositoryListOrdersCaseInsensitively(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewTagRepository(db, testPrefix)
	ctx := context.Background()

	for i, name := range []string{"banana", "Apple", "cherry"} {
		require.NoError(t, repo.Create(ctx, namedTag(uint(i+1), name)))
	}

	tags, err := repo.List(ctx, entities.LocaleEn, 0, 0)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "Apple", tags[0].Name(entities.LocaleEn))
	assert.Equal(t, "banana", tags[1].Name(entities.LocaleEn))
	assert.Equal(t, "cherry", tags[2].Name(entities.LocaleEn))

	page, err := repo.List(ctx, entities.LocaleEn, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "banana", page[0].Name(entities.LocaleEn))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTagRepositoryGetByIDsChunks(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewTagRepository(db, testPrefix)
	ctx := context.Background()

	const n = queryBatchSize + 50
	tags := make([]entities.Tag, n)
	ids := make([]uint, n)
	for i := range tags {
		tags[i] = entities.Tag{ID: uint(i + 1)}
		ids[i] = uint(i + 1)
	}
	require.NoError(t, db.CreateInBatches(tags, 100).Error)

	found, err := repo.GetByIDs(ctx, append(ids, 9999))
	require.NoError(t, err)
	assert.Len(t, found, n)
	assert.NotContains(t, found, uint(9999))
}

func TestTagRepositoryUpsert(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewTagRepository(db, testPrefix)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, namedTag(5, "old")))
	updated := namedTag(5, "new")
	updated.ApprovedEn = true
	require.NoError(t, repo.Upsert(ctx, updated))

	tag, err := repo.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "new", tag.Name(entities.LocaleEn))
	assert.True(t, tag.ApprovedEn)
}

func TestAssociationLinkIsIdempotent(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)
	assoc := NewAssociationRepository(db, testPrefix)

	require.NoError(t, assoc.Link(ctx, 1, typeID, 1))
	ids, err := assoc.TagIDsForEntity(ctx, typeID, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids)

	err = assoc.Create(ctx, 1, typeID, 1)
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestAssociationUnlinkAndCleanup(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)
	assoc := NewAssociationRepository(db, testPrefix)

	removed, err := assoc.UnlinkMany(ctx, []uint{2, 3}, typeID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = assoc.DeleteForEntity(ctx, typeID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = assoc.DeleteForTag(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed, "only B still carries x")
}

func TestAssociationTagDeleteCascades(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)

	require.NoError(t, NewTagRepository(db, testPrefix).Delete(ctx, 1))

	ids, err := NewAssociationRepository(db, testPrefix).TagIDsForEntity(ctx, typeID, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, ids)
}

func TestAssociationTagsForEntity(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)

	tags, err := NewAssociationRepository(db, testPrefix).TagsForEntity(ctx, typeID, 3, entities.LocaleEn)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "y", tags[0].Name(entities.LocaleEn))
	assert.Equal(t, "z", tags[1].Name(entities.LocaleEn))
}

func TestAssociationUsageCounts(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)
	assoc := NewAssociationRepository(db, testPrefix)

	rows, err := assoc.UsageCounts(ctx, typeID, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{1, 2}, {2, 2}, {3, 1}}, rows)

	rows, err = assoc.UsageCounts(ctx, typeID, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{1, 2}, {2, 2}}, rows)

	onlyAC := Refiner(func(q *gorm.DB, entity clause.Column) (*gorm.DB, error) {
		return q.Where("? IN ?", entity, []uint{1, 3}), nil
	})
	rows, err = assoc.UsageCounts(ctx, typeID, onlyAC, 0)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{1, 1}, {2, 2}, {3, 1}}, rows)

	rows, err = assoc.UsageCounts(ctx, typeID+100, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAssociationRefinerErrorPropagates(t *testing.T) {
	db := setupRepositoryTestDB(t)
	typeID := seedScenario(t, db)
	boom := fmt.Errorf("catalog unavailable")

	_, err := NewAssociationRepository(db, testPrefix).UsageCounts(context.Background(), typeID,
		func(q *gorm.DB, _ clause.Column) (*gorm.DB, error) { return nil, boom }, 0)
	require.ErrorIs(t, err, boom)
}

func TestAssociationMembership(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)
	assoc := NewAssociationRepository(db, testPrefix)

	all, err := assoc.EntitiesWithAll(ctx, typeID, []uint{1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, all)

	all, err = assoc.EntitiesWithAll(ctx, typeID, []uint{2, 1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, all, "duplicate input ids collapse")

	single, err := assoc.EntitiesWithAll(ctx, typeID, []uint{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, single)

	anyOf, err := assoc.EntitiesWithAny(ctx, typeID, []uint{1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, anyOf)

	empty, err := assoc.EntitiesWithAll(ctx, typeID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	empty, err = assoc.EntitiesWithAny(ctx, typeID, []uint{}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAssociationCoOccurring(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)
	assoc := NewAssociationRepository(db, testPrefix)

	rows, err := assoc.CoOccurringCounts(ctx, typeID, []uint{1}, 0, entities.LocaleEn)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{2, 1}}, rows)

	rows, err = assoc.CoOccurringCounts(ctx, typeID, []uint{2}, 0, entities.LocaleEn)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{1, 1}, {3, 1}}, rows)

	rows, err = assoc.CoOccurringCounts(ctx, typeID, []uint{2}, 2, entities.LocaleEn)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = assoc.CoOccurringCounts(ctx, typeID, nil, 0, entities.LocaleEn)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAssociationCoOccurringGroupsByLocaleColumn(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)
	assoc := NewAssociationRepository(db, testPrefix)

	tags := NewTagRepository(db, testPrefix)
	require.NoError(t, tags.UpdateName(ctx, 1, entities.LocaleJa, "ん"))
	require.NoError(t, tags.UpdateName(ctx, 3, entities.LocaleJa, "あ"))

	var captured string
	require.NoError(t, db.Callback().Row().After("gorm:row").Register("test:capture", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	}))

	rows, err := assoc.CoOccurringCounts(ctx, typeID, []uint{2}, 0, entities.LocaleJa)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{3, 1}, {1, 1}}, rows, "ordered by the ja name column")
	assert.Contains(t, captured, "GROUP BY ti.tag_id,`t`.`name_ja`")
}

func TestAssociationRelatedEntities(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	typeID := seedScenario(t, db)
	assoc := NewAssociationRepository(db, testPrefix)

	// D(4) shares both of A's tags.
	require.NoError(t, assoc.LinkMany(ctx, []uint{1, 2}, typeID, 4))

	rows, err := assoc.RelatedEntities(ctx, typeID, 1, typeID, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []EntityScore{{4, 2}, {2, 1}, {3, 1}}, rows)

	top, err := assoc.RelatedEntities(ctx, typeID, 1, typeID, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []EntityScore{{4, 2}, {2, 1}}, top)

	video, err := NewEntityTypeRepository(db).GetOrCreate(ctx, "video")
	require.NoError(t, err)
	require.NoError(t, assoc.LinkMany(ctx, []uint{1}, video.ID, 1))

	cross, err := assoc.RelatedEntities(ctx, typeID, 1, video.ID, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []EntityScore{{1, 1}}, cross, "same id in another type is not the source")

	_, err = assoc.RelatedEntities(ctx, typeID, 1, typeID, nil, -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAliasRepositorySuggest(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewTagRepository(db, testPrefix).Create(ctx, namedTag(1, "golang")))
	repo := NewAliasRepository(db)

	for _, name := range []string{"go", "gopher", "go_lang", "goXlang", "rust"} {
		require.NoError(t, repo.Create(ctx, &entities.TagAlias{TargetID: 1, Name: name}))
	}
	require.ErrorIs(t, repo.Create(ctx, &entities.TagAlias{TargetID: 1, Name: "go"}), ErrDuplicateKey)

	got, err := repo.Suggest(ctx, "go", 0)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = repo.Suggest(ctx, "go_", 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "underscore matches literally")
	assert.Equal(t, "go_lang", got[0].Name)

	got, err = repo.Suggest(ctx, "go", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	forTag, err := repo.ListForTag(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, forTag, 5)

	deleted, err := repo.DeleteForTag(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	_, err = repo.GetByName(ctx, "go")
	require.ErrorIs(t, err, ErrAliasNotFound)
}

func TestEntityTypeRepository(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewEntityTypeRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "article")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, "article")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	byID, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "article", byID.Token)

	_, err = repo.GetByToken(ctx, "missing")
	require.ErrorIs(t, err, ErrEntityTypeNotFound)

	_, err = repo.GetOrCreate(ctx, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEntityTypeRepositoryLockForUpdate(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()

	et, err := NewEntityTypeRepository(db).GetOrCreate(ctx, "article")
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return NewEntityTypeRepository(tx).LockForUpdate(ctx, et.ID)
	})
	require.NoError(t, err)

	require.ErrorIs(t, NewEntityTypeRepository(db).LockForUpdate(ctx, et.ID+100), ErrEntityTypeNotFound)

	// MySQL renders the row lock, SQLite drops it.
	stmt := db.Session(&gorm.Session{DryRun: true}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&entities.EntityType{}, et.ID).Statement
	assert.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []uint{1, 2, 5}, dedupe([]uint{5, 2, 0, 1, 2, 5}))
	assert.Empty(t, dedupe(nil))
}

func TestAliasRepositoryUpsert(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()
	tags := NewTagRepository(db, testPrefix)
	require.NoError(t, tags.Create(ctx, namedTag(1, "golang")))
	require.NoError(t, tags.Create(ctx, namedTag(2, "go")))
	repo := NewAliasRepository(db)

	require.NoError(t, repo.Upsert(ctx, &entities.TagAlias{TargetID: 1, Name: "gopher"}))
	require.NoError(t, repo.Upsert(ctx, &entities.TagAlias{TargetID: 2, Name: "gopher"}))

	alias, err := repo.GetByName(ctx, "gopher")
	require.NoError(t, err)
	assert.Equal(t, uint(2), alias.TargetID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
