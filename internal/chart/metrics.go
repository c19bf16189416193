package chart

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var renderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "ourastream",
	Subsystem: "chart",
	Name:      "render_duration_seconds",
	Help:      "Time spent rebuilding the chart page after an append.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	prometheus.MustRegister(renderDuration)
}

func observeRender(d time.Duration) {
	renderDuration.Observe(d.Seconds())
}
