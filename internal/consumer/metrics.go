package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourastream",
		Subsystem: "consumer",
		Name:      "messages_processed_total",
		Help:      "Number of Kafka messages successfully decoded and appended.",
	}, []string{"topic"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourastream",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Number of decode failures per topic.",
	}, []string{"topic"})

	lastMessageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ourastream",
		Subsystem: "consumer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully processed message per topic.",
	}, []string{"topic"})

	seriesLengthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ourastream",
		Subsystem: "consumer",
		Name:      "series_length",
		Help:      "Number of entries currently held in the series state.",
	})
)

func init() {
	prometheus.MustRegister(processedCounter, decodeErrorCounter, lastMessageGauge, seriesLengthGauge)
}

func recordProcessed(topic string, ts time.Time, seriesLen int) {
	processedCounter.WithLabelValues(topic).Inc()
	if !ts.IsZero() {
		lastMessageGauge.WithLabelValues(topic).Set(float64(ts.Unix()))
	}
	seriesLengthGauge.Set(float64(seriesLen))
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}
