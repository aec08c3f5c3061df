// Command stationindex pages through the DB RIS-Stations directory and writes
// a name-keyed station coordinate index for the train event dashboard.
//
// Usage:
//
//	DB_CLIENT_ID=... DB_API_KEY=... go run ./cmd/stationindex
//
// Outputs land in OUTPUT_DIR (default station_cache): the raw directory dump,
// the index as JSON and CSV, and the stations lacking coordinates.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/ris-station-index/internal/adapter/artifacts"
	httpadapter "github.com/couchcryptid/ris-station-index/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ris-station-index/internal/adapter/kafka"
	"github.com/couchcryptid/ris-station-index/internal/adapter/ris"
	"github.com/couchcryptid/ris-station-index/internal/config"
	"github.com/couchcryptid/ris-station-index/internal/observability"
	"github.com/couchcryptid/ris-station-index/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := ris.NewClient(
		ris.Credentials{ClientID: cfg.ClientID, APIKey: cfg.APIKey},
		cfg.RISBaseURL, cfg.RISTimeout, metrics, logger,
	)
	writer := artifacts.NewWriter(cfg.OutputDir)

	var publisher pipeline.IndexPublisher
	if cfg.KafkaEnabled() {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaStationsTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(client, writer, publisher, cfg.RISPageSize, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, prometheus.DefaultGatherer, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	sum, err := p.Run(ctx)
	if err != nil {
		logger.Error("station index run failed", "error", err)
		return 1
	}

	logger.Info("station index written",
		"fetched", sum.Fetched,
		"pages", sum.Pages,
		"indexed", sum.Indexed,
		"missed", sum.Missed,
		"skipped", sum.Skipped,
		"published", sum.Published,
		"truncated", sum.Truncated,
		"duration", sum.Duration,
		"raw", sum.Paths.Raw,
		"index_json", sum.Paths.IndexJSON,
		"index_csv", sum.Paths.IndexCSV,
		"misses", sum.Paths.Misses,
	)
	return 0
}
