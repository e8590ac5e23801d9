// Package main is the entrypoint for the Alerter Lambda function.
//
// The Alerter runs on a fixed EventBridge schedule. Each invocation is one
// complete decision cycle: fetch the planetary K index and local sky
// conditions, evaluate the immediate and forecast alert channels against
// the persisted alert state, commit any state transitions, and publish the
// firing verdicts. The process holds no state between invocations; all
// suppression history lives in the configured state backend.
//
// This file handles dependency wiring (cold start) and delegates all
// decision logic to the internal/engine package.
//
// Set LOCAL_RUN=1 to execute a single cycle directly instead of starting
// the Lambda runtime.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"aurorawatch/internal/config"
	"aurorawatch/internal/engine"
	"aurorawatch/internal/external"
	"aurorawatch/internal/notify"
	"aurorawatch/internal/obs"
	"aurorawatch/internal/state"
	"aurorawatch/internal/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Alerter Lambda initializing (cold start)",
		"environment", cfg.Environment,
		"state_backend", cfg.State.Backend,
		"forecast_enabled", cfg.Alerting.ForecastEnabled,
		"nowcast_enabled", cfg.Alerting.NowcastEnabled,
	)

	ctx := context.Background()

	orchestrator, cleanup, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	handler := newHandler(orchestrator, logger)

	if os.Getenv("LOCAL_RUN") == "1" {
		if _, err := handler(ctx); err != nil {
			logger.Error("cycle failed", "error", err)
			cleanup()
			os.Exit(1)
		}
		return
	}

	lambda.Start(handler)
}

// buildOrchestrator wires every dependency of a decision cycle from the
// loaded configuration. The returned cleanup releases the database pool
// when the postgres backend is selected.
func buildOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Orchestrator, func(), error) {
	cleanup := func() {}

	httpClient := &http.Client{Timeout: cfg.Upstream.RequestTimeout}
	retry := external.DefaultRetryPolicy()

	swpcClient := external.NewSWPCClient(
		external.NewBaseClient(httpClient, "swpc", retry, userAgent()),
		external.SWPCClientConfig{BaseURL: cfg.Upstream.SWPCBaseURL, Logger: logger},
	)
	skyClient := external.NewOpenMeteoClient(
		external.NewBaseClient(httpClient, "open-meteo", retry, userAgent()),
		external.OpenMeteoClientConfig{
			BaseURL:   cfg.Upstream.OpenMeteoBaseURL,
			Latitude:  cfg.Site.Latitude,
			Longitude: cfg.Site.Longitude,
			Timezone:  cfg.Site.Timezone,
			Logger:    logger,
		},
	)

	store, storeCleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	cleanup = storeCleanup

	var notifier engine.Notifier = notify.NewLogNotifier(logger)
	var metrics engine.CycleMetrics = obs.NoopMetrics{}

	if cfg.AWS.NotificationQueue != "" || cfg.Observability.MetricsEnabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, cleanup, fmt.Errorf("loading AWS SDK config: %w", err)
		}
		if cfg.AWS.NotificationQueue != "" {
			notifier = notify.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.AWS.NotificationQueue, types.RealClock{}, logger)
		}
		if cfg.Observability.MetricsEnabled && cfg.Environment != "local" {
			metrics = obs.NewCloudWatchCycleMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, logger)
		}
	}

	orchestrator := engine.NewOrchestrator(engine.OrchestratorConfig{
		IndexSource: swpcClient,
		SkySource:   skyClient,
		Store:       store,
		Notifier:    notifier,
		Metrics:     metrics,
		Clock:       types.RealClock{},
		Logger:      logger,
		Thresholds: engine.Thresholds{
			ImmediateMinIndex:   cfg.Alerting.ImmediateMinKp,
			ForecastMinIndex:    cfg.Alerting.ForecastMinKp,
			MaxCloud:            cfg.Alerting.MaxCloudCover,
			ForecastWindowHours: cfg.Alerting.ForecastWindowHours,
			PeakWindowHours:     cfg.Alerting.PeakWindowHours,
		},
		ImmediateCooldown: cfg.Alerting.ImmediateCooldown,
		ForecastCooldown:  cfg.Alerting.ForecastCooldown,
		ForecastEnabled:   cfg.Alerting.ForecastEnabled,
		NowcastEnabled:    cfg.Alerting.NowcastEnabled,
	})
	return orchestrator, cleanup, nil
}

// buildStore selects the alert state backend from configuration.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (state.Store, func(), error) {
	switch cfg.State.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.State.DatabaseURL.Unmask())
		if err != nil {
			return nil, func() {}, fmt.Errorf("creating database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("pinging database: %w", err)
		}
		logger.Info("using postgres state backend")
		return state.NewPostgresStore(pool), pool.Close, nil
	default:
		logger.Info("using file state backend", "path", cfg.State.FilePath)
		return state.NewFileStore(cfg.State.FilePath), func() {}, nil
	}
}

// newHandler creates the Lambda handler. Each invocation gets a fresh cycle
// ID that tags every log line and outbound request for the cycle.
func newHandler(orchestrator *engine.Orchestrator, logger *slog.Logger) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		cycleID := uuid.New().String()
		ctx = types.WithCycleID(ctx, cycleID)

		logger.InfoContext(ctx, "alert cycle starting", "cycle_id", cycleID)

		summary, err := orchestrator.RunCycle(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "alert cycle failed",
				"cycle_id", cycleID,
				"error", err,
			)
			return "", fmt.Errorf("alert cycle %s failed: %w", cycleID, err)
		}

		result := fmt.Sprintf("cycle complete: %d evaluated, %d fired, %d suppressed",
			summary.Evaluated, summary.Fired, summary.Suppressed)
		logger.InfoContext(ctx, result, "cycle_id", cycleID)
		return result, nil
	}
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func userAgent() string {
	return "AuroraWatch/1.0 (+https://github.com/aurorawatch/aurorawatch)"
}
