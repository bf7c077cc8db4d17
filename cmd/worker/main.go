package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corpusjuris/interrogator/internal/bootstrap"
	"github.com/corpusjuris/interrogator/internal/config"
	"github.com/corpusjuris/interrogator/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	sessionMetrics := metrics.NewSessionMetrics(serviceName)
	metricsMux := http.NewServeMux()
	// One scrape endpoint exposes both the session registry and the
	// retrieval registry the engine's degradation hook records into.
	metricsMux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{sessionMetrics.Gatherer(), app.Metrics.Gatherer()},
		promhttp.HandlerOpts{},
	))
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeSessionSubmitted(ctx, func(handlerCtx context.Context, sessionID string) error {
		if s, err := app.Store.GetByID(handlerCtx, sessionID); err == nil {
			sessionMetrics.ObserveQueueLag(serviceName, time.Since(s.CreatedAt))
		}

		sessionMetrics.StartSession()
		start := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()
		processErr := app.InterrogateUC.ProcessByID(processCtx, sessionID)

		turnsUsed := 0
		if processErr == nil {
			if s, err := app.Store.GetByID(handlerCtx, sessionID); err == nil {
				turnsUsed = s.TurnsUsed
			}
		}
		sessionMetrics.FinishSession(serviceName, time.Since(start), turnsUsed, processErr)
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
