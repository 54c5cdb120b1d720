package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonicaltags/ctags/internal/conf"
	"github.com/canonicaltags/ctags/internal/errors"
)

func initForTesting(t *testing.T) *mockTransport {
	t.Helper()
	transport := &mockTransport{}
	require.NoError(t, initialize("", "test", transport))
	t.Cleanup(Shutdown)
	return transport
}

func TestInitDisabledIsNoop(t *testing.T) {
	require.NoError(t, Init(&conf.Settings{}, "test"))
	require.NoError(t, Init(nil, "test"))
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestDatabaseErrorsAreReported(t *testing.T) {
	transport := initForTesting(t)

	_ = errors.Newf("connect to ctags:secret@tcp(db:3306) failed").
		Component("tagging").
		Category(errors.CategoryDatabase).
		Build()

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "tagging", events[0].Tags["component"])
	assert.Equal(t, string(errors.CategoryDatabase), events[0].Tags["category"])
	assert.NotContains(t, events[0].Message, "secret")
}

func TestPriorityDrivesEventLevel(t *testing.T) {
	transport := initForTesting(t)

	ee := errors.Newf("database unreachable").
		Component("runtime").
		Category(errors.CategoryDatabase).
		Priority(errors.PriorityCritical).
		Build()

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelFatal, events[0].Level)
	assert.Equal(t, errors.PriorityCritical, events[0].Tags["priority"])
	assert.True(t, events[0].Timestamp.Equal(ee.GetTimestamp()))
}

func TestCallerErrorsAreNotReported(t *testing.T) {
	transport := initForTesting(t)

	_ = errors.Newf("tag 7 not found").Component("tagging").Category(errors.CategoryNotFound).Build()
	_ = errors.Newf("limit must be non-negative").Component("tagging").Category(errors.CategoryValidation).Build()

	assert.Empty(t, transport.Events())
}

func TestShutdownStopsReporting(t *testing.T) {
	transport := initForTesting(t)
	Shutdown()

	_ = errors.Newf("disk full").Category(errors.CategoryDatabase).Build()
	assert.Empty(t, transport.Events())
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestApplyPrivacyFilters(t *testing.T) {
	event := &sentry.Event{
		Message:    "open /home/alice/ctags/ctags.db failed",
		ServerName: "alice-laptop",
		User:       sentry.User{ID: "alice"},
		Contexts:   map[string]sentry.Context{"os": {"name": "linux"}, "app": {"name": "ctags"}},
		Extra:      map[string]any{"component": "tagging", "path": "/home/alice"},
		Tags:       map[string]string{"hostname": "alice-laptop", "category": "database"},
	}

	filtered := applyPrivacyFilters(event)

	assert.Empty(t, filtered.ServerName)
	assert.True(t, filtered.User.IsEmpty())
	assert.NotContains(t, filtered.Contexts, "os")
	assert.Contains(t, filtered.Contexts, "app")
	assert.Equal(t, map[string]any{"component": "tagging"}, filtered.Extra)
	assert.Equal(t, map[string]string{"category": "database"}, filtered.Tags)
	assert.NotContains(t, filtered.Message, "alice")
}
