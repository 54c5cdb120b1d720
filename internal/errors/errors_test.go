package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestBuilderSetsFields(t *testing.T) {
	base := NewStd("tag 42 not found")
	ee := New(base).
		Component("tagging").
		Category(CategoryNotFound).
		Context("tag_id", 42).
		Timing("get_tag", 15*time.Millisecond).
		Build()

	assert.Equal(t, "tagging", ee.GetComponent())
	assert.Equal(t, "not-found", ee.GetCategory())
	assert.Equal(t, "tag 42 not found", ee.Error())
	ctx := ee.GetContext()
	assert.Equal(t, 42, ctx["tag_id"])
	assert.Equal(t, "get_tag", ctx["operation"])
	assert.Equal(t, int64(15), ctx["duration_ms"])
	assert.ErrorIs(t, ee, base)
}

func TestCategoryHelpers(t *testing.T) {
	tests := []struct {
		name     string
		category ErrorCategory
		check    func(error) bool
	}{
		{"not found", CategoryNotFound, IsNotFound},
		{"invalid argument", CategoryValidation, IsInvalidArgument},
		{"constraint violation", CategoryConflict, IsConstraintViolation},
		{"adapter failure", CategoryAdapter, IsAdapterFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Newf("boom").Component("test").Category(tt.category).Build()
			assert.True(t, tt.check(err))

			wrapped := fmt.Errorf("outer: %w", err)
			assert.True(t, tt.check(wrapped), "category must survive fmt wrapping")

			assert.False(t, tt.check(NewStd("plain")))
		})
	}
}

func TestDetectCategoryFromMessage(t *testing.T) {
	assert.Equal(t, CategoryNotFound, detectCategory(NewStd("record not found"), "tagging"))
	assert.Equal(t, CategoryConflict, detectCategory(NewStd("UNIQUE constraint failed"), "tagging"))
	assert.Equal(t, CategoryValidation, detectCategory(NewStd("invalid steps"), "tagging"))
	assert.Equal(t, CategoryDatabase, detectCategory(NewStd("disk I/O"), "datastore"))
	assert.Equal(t, CategoryAdapter, detectCategory(NewStd("boom"), "catalog"))
	assert.Equal(t, CategoryGeneric, detectCategory(nil, "tagging"))
}

func TestDetectCategoryPrefersWrappedEnhancedError(t *testing.T) {
	inner := Newf("whatever").Component("catalog").Category(CategoryAdapter).Build()
	assert.Equal(t, CategoryAdapter, detectCategory(fmt.Errorf("wrap: %w", inner), "tagging"))
}

func TestReporterReceivesOnlyFaults(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	_ = Newf("missing").Component("tagging").Category(CategoryNotFound).Build()
	_ = Newf("bad input").Component("tagging").Category(CategoryValidation).Build()
	fault := Newf("database is locked").Component("datastore").Category(CategoryDatabase).Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, fault, reporter.reported[0])
	assert.True(t, fault.IsReported())
}

func TestSetTelemetryReporterNilDisablesFastPath(t *testing.T) {
	SetTelemetryReporter(&recordingReporter{})
	assert.True(t, hasActiveReporting.Load())
	SetTelemetryReporter(nil)
	assert.False(t, hasActiveReporting.Load())
	assert.Nil(t, GetTelemetryReporter())
}

func TestScrubMessage(t *testing.T) {
	scrubbed := ScrubMessage("dial ctags:hunter2@tcp(db:3306) failed reading /var/lib/ctags/tags.db")
	assert.NotContains(t, scrubbed, "hunter2")
	assert.NotContains(t, scrubbed, "/var/lib/ctags")
	assert.Contains(t, scrubbed, "[REDACTED]")
	assert.Contains(t, scrubbed, "[PATH]")
}

func TestErrorTitle(t *testing.T) {
	ee := Newf("x").Component("datastore.repository").Category(CategoryConflict).
		Context("operation", "replace_tags").Build()
	assert.Equal(t, "Datastore Repository Conflict Replace Tags", errorTitle(ee))
}

func TestLookupComponentPrefersLongestPattern(t *testing.T) {
	assert.Equal(t, "datastore.repository",
		lookupComponent("github.com/canonicaltags/ctags/internal/datastore/repository.(*tagRepository).GetByID"))
	assert.Equal(t, "datastore",
		lookupComponent("github.com/canonicaltags/ctags/internal/datastore.(*SQLiteManager).Initialize"))
	assert.Equal(t, ComponentUnknown, lookupComponent("main.main"))
}

func TestPriorityOverridesCategoryLevel(t *testing.T) {
	tests := []struct {
		name     string
		priority string
		category ErrorCategory
		want     sentry.Level
	}{
		{"category only", "", CategoryConflict, sentry.LevelWarning},
		{"critical", PriorityCritical, CategoryDatabase, sentry.LevelFatal},
		{"high", PriorityHigh, CategoryConflict, sentry.LevelError},
		{"low", PriorityLow, CategoryDatabase, sentry.LevelInfo},
		{"unknown falls back to medium", "urgent", CategoryDatabase, sentry.LevelWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ee := Newf("boom").Component("test").Category(tt.category).Priority(tt.priority).Build()
			assert.Equal(t, tt.want, errorLevel(ee))
		})
	}

	before := time.Now()
	ee := Newf("boom").Priority(PriorityHigh).Build()
	assert.Equal(t, PriorityHigh, ee.GetPriority())
	assert.False(t, ee.GetTimestamp().Before(before))
}
