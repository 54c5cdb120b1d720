package tagging

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomTagSet draws up to n distinct ids from 1..maxID.
func randomTagSet(rng *rand.Rand, n, maxID int) []uint {
	size := rng.IntN(n + 1)
	ids := make([]uint, 0, size)
	for range size {
		ids = append(ids, uint(rng.IntN(maxID)+1))
	}
	return uniqueIDs(ids)
}

func TestQueryProperties(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))

	const (
		entityCount = 25
		maxTagID    = 8
	)

	assigned := make(map[uint][]uint, entityCount)
	for id := uint(1); id <= entityCount; id++ {
		tags := randomTagSet(rng, 5, maxTagID)
		require.NoError(t, env.engine.ReplaceTags(ctx, post(id), tags))
		assigned[id] = tags

		got, err := env.engine.TagsForEntity(ctx, post(id))
		require.NoError(t, err)
		assert.ElementsMatch(t, tags, tagIDs(got), "tags equal the replaced set")
	}

	scope := Scope{Type: testPostType}
	for range 30 {
		input := randomTagSet(rng, 3, maxTagID)

		all, err := env.engine.MembersWithAll(ctx, scope, input)
		require.NoError(t, err)
		anyOf, err := env.engine.MembersWithAny(ctx, scope, input)
		require.NoError(t, err)

		for _, ref := range all {
			assert.Contains(t, anyOf, ref, "intersection is a subset of union for %v", input)
		}
		if len(input) == 1 {
			assert.Equal(t, all, anyOf)
		}

		// Cross-check against the assignments held in memory.
		var wantAll, wantAny []uint
		for id := uint(1); id <= entityCount; id++ {
			hasAll, hasAny := len(input) > 0, false
			for _, tag := range input {
				if slices.Contains(assigned[id], tag) {
					hasAny = true
				} else {
					hasAll = false
				}
			}
			if hasAll {
				wantAll = append(wantAll, id)
			}
			if hasAny {
				wantAny = append(wantAny, id)
			}
		}
		assert.ElementsMatch(t, wantAll, refIDs(all), "with_all %v", input)
		assert.ElementsMatch(t, wantAny, refIDs(anyOf), "with_any %v", input)

		related, err := env.engine.RelatedForTags(ctx, input, testPostType, CountOptions{Counts: true})
		require.NoError(t, err)
		for _, r := range related {
			assert.NotContains(t, input, r.Tag.ID, "related tags exclude the input set")
			assert.Positive(t, r.Count)
		}
	}

	cloud, err := env.engine.Cloud(ctx, scope, CloudOptions{Steps: 6})
	require.NoError(t, err)
	for _, c := range cloud {
		assert.GreaterOrEqual(t, c.FontSize, 1)
		assert.LessOrEqual(t, c.FontSize, 6)
	}
}
