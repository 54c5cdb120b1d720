// Package telemetry wires categorized engine errors to Sentry.
//
// Reporting is opt-in. When enabled, every EnhancedError outside the
// not-found and validation categories is sent once, with user, host and
// runtime details stripped before the event leaves the process.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/canonicaltags/ctags/internal/conf"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/logger"
)

// FlushTimeout bounds how long Shutdown waits for queued events.
const FlushTimeout = 2 * time.Second

var (
	initMu      sync.Mutex
	initialized bool
)

// Init enables Sentry reporting when settings ask for it. It is a no-op
// otherwise.
func Init(settings *conf.Settings, version string) error {
	if settings == nil || !settings.Telemetry.Enabled {
		return nil
	}
	return initialize(settings.Telemetry.DSN, version, nil)
}

func initialize(dsn, version string, transport sentry.Transport) error {
	initMu.Lock()
	defer initMu.Unlock()

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Transport:        transport,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          fmt.Sprintf("ctags@%s", version),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	initialized = true

	logger.Global().Module("telemetry").Info("error reporting enabled",
		logger.String("release", version))
	return nil
}

// Shutdown flushes pending events and stops reporting.
func Shutdown() {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return
	}
	sentry.Flush(FlushTimeout)
	errors.SetTelemetryReporter(nil)
	sentry.CurrentHub().BindClient(nil)
	initialized = false
}

// applyPrivacyFilters drops data that could identify the host or its users.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = errors.ScrubMessage(event.Message)
	return event
}
