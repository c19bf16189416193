package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/ourastream/internal/chart"
	"example.com/ourastream/internal/config"
	"example.com/ourastream/internal/consumer"
	"example.com/ourastream/internal/series"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("consumer startup failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := chart.NewLive()
	chartSrv := &http.Server{Addr: cfg.ChartAddress, Handler: live.Handler()}
	go func() {
		log.Printf("live chart listening on %s", cfg.ChartAddress)
		if err := chartSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("chart server error: %v", err)
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.ConsumerMetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Printf("consumer metrics listening on %s", cfg.ConsumerMetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.ConsumerGroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})

	state := series.NewState()
	agg := consumer.NewAggregator(reader, state, consumer.WithObserver(live))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()

		log.Printf("consumer started (topic=%s, group=%s)", cfg.Topic, cfg.ConsumerGroupID)
		if err := agg.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Println("consumer interrupted by user")
				return
			}
			log.Printf("consumer stopped with error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("consumer shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := chartSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("chart server shutdown error: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	wg.Wait()
}
