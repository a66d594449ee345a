package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwaxman519/rishi-next-sub005/pkg/application"
)

// PrometheusController serves the metrics endpoint from its own registry:
// the scheduling operation collectors plus process and Go runtime metrics.
// A dedicated registry keeps the endpoint's contents explicit instead of
// exposing whatever third-party code registered globally.
type PrometheusController struct {
	path     string
	registry *prometheus.Registry
}

func NewPrometheusController(path string) application.Controller {
	if path == "" {
		path = "/debug/prometheus"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(Collectors()...)
	return &PrometheusController{path: path, registry: registry}
}

func (c *PrometheusController) Key() string {
	return c.path
}

func (c *PrometheusController) Register(r *mux.Router) {
	r.Handle(c.path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
