// Package observability wires Prometheus metric collectors for the ctags engine.
//
// ctags runs as short-lived commands, so metrics are exported through the
// node_exporter textfile collector format rather than a scrape endpoint.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Tagging  *metrics.TaggingMetrics
}

// NewMetrics creates a new instance of Metrics on a private registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	taggingMetrics, err := metrics.NewTaggingMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create tagging metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Tagging:  taggingMetrics,
	}, nil
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values to path in the text
// exposition format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("metrics textfile path is empty")
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
