package tagging

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/logger"
	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

// floorEpsilon absorbs rounding so a ratio that is mathematically an
// integer does not floor to the integer below.
const floorEpsilon = 1e-9

// Cloud computes a tag cloud for scope: usage counts weighted into font
// sizes 1..opts.Steps. Entries follow Usage order (tag id).
func (e *Engine) Cloud(ctx context.Context, scope Scope, opts CloudOptions) (cloud []CloudTag, err error) {
	start := time.Now()
	defer func() {
		err = e.observe(ctx, metrics.OpCloud, start, err,
			logger.String("entity_type", scope.Type),
			logger.Int("steps", opts.Steps),
			logger.String("distribution", opts.Distribution.String()),
			logger.Int("count", len(cloud)))
	}()

	if opts.Steps == 0 {
		opts.Steps = DefaultCloudSteps
	}
	if err := checkCloudOptions(opts); err != nil {
		return nil, err
	}

	usage, err := e.Usage(ctx, scope, CountOptions{Counts: true, MinCount: opts.MinCount})
	if err != nil {
		return nil, err
	}

	return CalculateCloud(usage, opts.Steps, opts.Distribution)
}

func checkCloudOptions(opts CloudOptions) error {
	if opts.Steps < 1 {
		return invalidArgument("steps must be at least 1, got %d", opts.Steps)
	}
	if !opts.Distribution.Valid() {
		return invalidArgument("unknown cloud distribution %s", opts.Distribution)
	}
	if opts.MinCount < 0 {
		return invalidArgument("min_count must be non-negative, got %d", opts.MinCount)
	}
	return nil
}

// CalculateCloud assigns each usage entry a font size in [1, steps]:
//
//	size = 1 + floor((w(count) - w(min)) * (steps-1) / (w(max) - w(min)))
//
// where w is the identity for Linear and the natural log for Logarithmic.
// When every count is equal each tag gets size steps. Counts must be at
// least 1.
func CalculateCloud(usage []TagUsage, steps int, distribution Distribution) ([]CloudTag, error) {
	if err := checkCloudOptions(CloudOptions{Steps: steps, Distribution: distribution}); err != nil {
		return nil, err
	}

	cloud := make([]CloudTag, len(usage))
	if len(usage) == 0 {
		return cloud, nil
	}

	minCount, maxCount := usage[0].Count, usage[0].Count
	for _, u := range usage {
		if u.Count < 1 {
			return nil, invalidArgument("cloud counts must be at least 1, got %d", u.Count)
		}
		minCount = min(minCount, u.Count)
		maxCount = max(maxCount, u.Count)
	}

	weight := func(c int64) float64 {
		if distribution == Logarithmic {
			return math.Log(float64(c))
		}
		return float64(c)
	}

	low, high := weight(minCount), weight(maxCount)
	spread := high - low

	for i, u := range usage {
		size := steps
		if spread > 0 {
			ratio := (weight(u.Count) - low) * float64(steps-1) / spread
			size = 1 + int(math.Floor(ratio+floorEpsilon))
			size = max(1, min(steps, size))
		}
		cloud[i] = CloudTag{Tag: u.Tag, Count: u.Count, FontSize: size}
	}
	return cloud, nil
}

// sortByName orders tags case-insensitively by their name in locale, then
// by id, matching the database ordering. Unnamed tags sort first.
func sortByName(tags []*entities.Tag, locale entities.Locale) {
	slices.SortStableFunc(tags, func(a, b *entities.Tag) int {
		if c := strings.Compare(strings.ToLower(a.Name(locale)), strings.ToLower(b.Name(locale))); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
