// Package metrics provides the HTTP handler exposing cycle metrics in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicholas-fedor/tagwatch/pkg/metrics"
)

// Handler is an HTTP handle for serving metric data.
type Handler struct {
	Path    string
	Handle  http.HandlerFunc
	Metrics *metrics.Metrics
}

// New creates a handler serving the default registry and the default metrics handler.
func New() *Handler {
	return NewWithGatherer(metrics.Default(), prometheus.DefaultGatherer)
}

// NewWithGatherer creates a handler serving the collectors of gatherer.
//
// Parameters:
//   - m: Metrics handler the collectors belong to.
//   - gatherer: Prometheus gatherer to expose.
//
// Returns:
//   - *Handler: Handler serving /v1/metrics.
func NewWithGatherer(m *metrics.Metrics, gatherer prometheus.Gatherer) *Handler {
	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	return &Handler{
		Path:    "/v1/metrics",
		Handle:  handler.ServeHTTP,
		Metrics: m,
	}
}
