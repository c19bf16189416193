package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/ourastream/internal/config"
	"example.com/ourastream/internal/producer"
	"example.com/ourastream/internal/store"
)

func main() {
	os.Exit(run())
}

// run is separate from main so deferred cleanup happens before os.Exit.
func run() int {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("producer startup failed: %v", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DataFile)
	if err != nil {
		log.Printf("producer startup failed: %v", err)
		return exitCode(err)
	}
	defer st.Close()

	if err := producer.EnsureTopic(cfg.KafkaBrokers, cfg.Topic); err != nil {
		log.Printf("topic setup failed: %v", err)
		return 1
	}
	log.Printf("kafka topic %q is ready", cfg.Topic)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("writer close error: %v", err)
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.ProducerMetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Printf("producer metrics listening on %s", cfg.ProducerMetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("producer shutdown requested")
		cancel()
	}()

	emitter := producer.NewEmitter(st, writer, cfg.Topic, time.Duration(cfg.IntervalSeconds)*time.Second)
	log.Printf("starting message production to topic %q (interval=%ds)", cfg.Topic, cfg.IntervalSeconds)
	runErr := emitter.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	if errors.Is(runErr, context.Canceled) {
		log.Println("producer interrupted by user")
		return 0
	}
	log.Printf("producer stopped: %v", runErr)
	return exitCode(runErr)
}

// exitCode maps the store's failure classes to distinct exit statuses so
// callers can tell a missing file from a corrupt one.
func exitCode(err error) int {
	switch {
	case errors.Is(err, store.ErrMissing):
		return 1
	case errors.Is(err, store.ErrMalformed):
		return 2
	default:
		return 3
	}
}
