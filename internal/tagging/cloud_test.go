package tagging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/errors"
)

func usageOf(counts ...int64) []TagUsage {
	usage := make([]TagUsage, len(counts))
	for i, c := range counts {
		usage[i] = TagUsage{Tag: &entities.Tag{ID: uint(i + 1)}, Count: c}
	}
	return usage
}

func fontSizes(cloud []CloudTag) []int {
	sizes := make([]int, len(cloud))
	for i, c := range cloud {
		sizes[i] = c.FontSize
	}
	return sizes
}

func TestCalculateCloud(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		counts       []int64
		steps        int
		distribution Distribution
		want         []int
	}{
		{"logarithmic spread", []int64{1, 10, 100}, 4, Logarithmic, []int{1, 2, 4}},
		{"linear spread", []int64{1, 2, 4}, 4, Linear, []int{1, 2, 4}},
		{"linear bias to low end", []int64{1, 10, 100}, 4, Linear, []int{1, 1, 4}},
		{"equal counts get max size", []int64{3, 3, 3}, 5, Logarithmic, []int{5, 5, 5}},
		{"single tag", []int64{7}, 4, Linear, []int{4}},
		{"single step", []int64{1, 50}, 1, Linear, []int{1, 1}},
		{"exact ratio does not round down", []int64{1, 1000}, 4, Logarithmic, []int{1, 4}},
		{"empty", nil, 4, Logarithmic, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cloud, err := CalculateCloud(usageOf(tt.counts...), tt.steps, tt.distribution)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fontSizes(cloud))
		})
	}
}

func TestCalculateCloudSizesStayInRange(t *testing.T) {
	t.Parallel()

	counts := []int64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233}
	for _, distribution := range []Distribution{Linear, Logarithmic} {
		for steps := 1; steps <= 8; steps++ {
			cloud, err := CalculateCloud(usageOf(counts...), steps, distribution)
			require.NoError(t, err)

			prev := 0
			for _, c := range cloud {
				assert.GreaterOrEqual(t, c.FontSize, 1)
				assert.LessOrEqual(t, c.FontSize, steps)
				assert.GreaterOrEqual(t, c.FontSize, prev, "sizes never shrink as counts grow")
				prev = c.FontSize
			}
			assert.Equal(t, 1, cloud[0].FontSize)
			assert.Equal(t, steps, cloud[len(cloud)-1].FontSize)
		}
	}
}

func TestCalculateCloudRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := CalculateCloud(usageOf(1), 0, Linear)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = CalculateCloud(usageOf(1), -2, Linear)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = CalculateCloud(usageOf(1), 4, Distribution(9))
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = CalculateCloud(usageOf(0, 4), 4, Logarithmic)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestParseDistribution(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Distribution{
		"linear":       Linear,
		"LOG":          Logarithmic,
		" logarithmic": Logarithmic,
	} {
		got, err := ParseDistribution(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseDistribution("cubic")
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestEngineCloud(t *testing.T) {
	env := newTestEnv(t)
	env.seedScenario(t)
	ctx := context.Background()

	cloud, err := env.engine.Cloud(ctx, Scope{Type: testPostType}, CloudOptions{Steps: 4, Distribution: Linear})
	require.NoError(t, err)
	require.Len(t, cloud, 3)

	sizes := make(map[uint]int)
	for _, c := range cloud {
		sizes[c.Tag.ID] = c.FontSize
	}
	// x:2, y:2, z:1
	assert.Equal(t, map[uint]int{1: 4, 2: 4, 3: 1}, sizes)

	equal, err := env.engine.Cloud(ctx, Scope{Type: testPostType}, CloudOptions{Steps: 3, MinCount: 2})
	require.NoError(t, err)
	require.Len(t, equal, 2)
	for _, c := range equal {
		assert.Equal(t, 3, c.FontSize, "equal counts map to the largest size")
		assert.Equal(t, int64(2), c.Count)
	}

	_, err = env.engine.Cloud(ctx, Scope{Type: testPostType}, CloudOptions{Steps: -1})
	assert.True(t, errors.IsInvalidArgument(err))

	zero, err := env.engine.Cloud(ctx, Scope{Type: testPostType}, CloudOptions{})
	require.NoError(t, err, "the zero value means default steps and logarithmic weighting")
	want, err := env.engine.Cloud(ctx, Scope{Type: testPostType}, DefaultCloudOptions())
	require.NoError(t, err)
	assert.Equal(t, want, zero)

	_, err = env.engine.Cloud(ctx, Scope{Type: testPostType}, CloudOptions{Steps: 4, MinCount: -1})
	assert.True(t, errors.IsInvalidArgument(err))

	defaults, err := env.engine.ForType(testPostType).Cloud(ctx, nil, DefaultCloudOptions())
	require.NoError(t, err)
	assert.Len(t, defaults, 3)
}

func TestSortCloudByName(t *testing.T) {
	named := func(id uint, name string) *entities.Tag {
		tag := &entities.Tag{ID: id}
		tag.SetName(entities.LocaleEs, name)
		return tag
	}

	cloud := []CloudTag{
		{Tag: named(1, "zorro")},
		{Tag: named(2, "Árbol")},
		{Tag: named(3, "abeja")},
		{Tag: named(4, "")},
	}
	SortCloudByName(cloud, entities.LocaleEs)

	ids := make([]uint, len(cloud))
	for i, c := range cloud {
		ids[i] = c.Tag.ID
	}
	assert.Equal(t, []uint{4, 3, 2, 1}, ids, "accents and case collate with their base letters")
}
