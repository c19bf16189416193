package store

import "github.com/prometheus/client_golang/prometheus"

var (
	skippedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourastream",
		Subsystem: "store",
		Name:      "lines_skipped_total",
		Help:      "Number of malformed source lines skipped per file.",
	}, []string{"file"})

	passCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourastream",
		Subsystem: "store",
		Name:      "file_passes_total",
		Help:      "Number of times the replay source has been (re)opened.",
	}, []string{"file"})
)

func init() {
	prometheus.MustRegister(skippedCounter, passCounter)
}

func recordLineSkipped(file string) {
	skippedCounter.WithLabelValues(file).Inc()
}

func recordPass(file string) {
	passCounter.WithLabelValues(file).Inc()
}
