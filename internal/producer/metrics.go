package producer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sentCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourastream",
		Subsystem: "producer",
		Name:      "messages_sent_total",
		Help:      "Number of records successfully handed to the Kafka writer.",
	}, []string{"topic"})

	publishErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ourastream",
		Subsystem: "producer",
		Name:      "publish_errors_total",
		Help:      "Number of per-record publish failures per topic.",
	}, []string{"topic"})

	lastSentGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ourastream",
		Subsystem: "producer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully sent record per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(sentCounter, publishErrorCounter, lastSentGauge)
}

func recordSent(topic string) {
	sentCounter.WithLabelValues(topic).Inc()
	lastSentGauge.WithLabelValues(topic).Set(float64(time.Now().Unix()))
}

func recordPublishError(topic string) {
	publishErrorCounter.WithLabelValues(topic).Inc()
}
