package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "htmlpress_renders_total",
		Help: "Render outcomes by status.",
	}, []string{"status"})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "htmlpress_render_duration_seconds",
		Help:    "Wall-clock time of render calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	browserRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "htmlpress_browser_restarts_total",
		Help: "Forced browser restarts via the API.",
	})
)

// observeRender records the outcome and duration of one render call.
func observeRender(d time.Duration, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	rendersTotal.WithLabelValues(status).Inc()
	renderDuration.Observe(d.Seconds())
}
