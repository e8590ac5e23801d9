// Package config defines the configuration for the aurora alert engine.
// Configuration is loaded once at process initialization (Lambda cold
// start) and is immutable thereafter. It follows 12-Factor App principles
// by strictly separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any missing required value or invalid format fails the invocation
// immediately on startup.
package config

import (
	"time"

	"aurorawatch/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only
// the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Site          SiteConfig
	Alerting      AlertingConfig
	State         StateConfig
	Upstream      UpstreamConfig
	AWS           AWSConfig
	Observability ObservabilityConfig
}

// SiteConfig identifies the fixed observation site whose sky conditions
// gate every alert.
type SiteConfig struct {
	Latitude  float64 `envconfig:"LATITUDE" default:"50.77" validate:"gte=-90,lte=90"`
	Longitude float64 `envconfig:"LONGITUDE" default:"16.28" validate:"gte=-180,lte=180"`
	// Timezone is passed through to the sky provider; "auto" lets the
	// provider derive it from the coordinates.
	Timezone string `envconfig:"TIMEZONE" default:"auto"`
}

// AlertingConfig holds the thresholds and suppression windows for both
// alert channels.
type AlertingConfig struct {
	ImmediateMinKp      float64       `envconfig:"IMMEDIATE_MIN_KP" default:"6.0" validate:"gte=0,lte=9"`
	ForecastMinKp       float64       `envconfig:"FORECAST_MIN_KP" default:"6.0" validate:"gte=0,lte=9"`
	MaxCloudCover       float64       `envconfig:"MAX_CLOUD_COVER" default:"70" validate:"gte=0,lte=100"`
	ForecastWindowHours float64       `envconfig:"FORECAST_WINDOW_HOURS" default:"24" validate:"gt=0"`
	PeakWindowHours     float64       `envconfig:"PEAK_WINDOW_HOURS" default:"2" validate:"gte=0"`
	ImmediateCooldown   time.Duration `envconfig:"IMMEDIATE_COOLDOWN" default:"2h"`
	ForecastCooldown    time.Duration `envconfig:"FORECAST_COOLDOWN" default:"6h"`
	ForecastEnabled     bool          `envconfig:"FORECAST_ENABLED" default:"true"`
	NowcastEnabled      bool          `envconfig:"NOWCAST_ENABLED" default:"true"`
}

// StateConfig selects and parameterizes the alert state backend.
type StateConfig struct {
	Backend  string `envconfig:"STATE_BACKEND" default:"file" validate:"oneof=file postgres"`
	FilePath string `envconfig:"STATE_FILE" default:"aurora_alert_state.json"`
	// DatabaseURL is required when Backend is "postgres".
	DatabaseURL SecretString `envconfig:"DATABASE_URL"`
}

// UpstreamConfig holds the provider endpoints and HTTP tuning. The base
// URL overrides exist for tests and air-gapped mirrors; empty means the
// production endpoints.
type UpstreamConfig struct {
	SWPCBaseURL      string        `envconfig:"SWPC_BASE_URL" validate:"omitempty,url"`
	OpenMeteoBaseURL string        `envconfig:"OPENMETEO_BASE_URL" validate:"omitempty,url"`
	RequestTimeout   time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"15s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// NotificationQueue is the SQS queue firing verdicts are published to.
	// Empty selects the log notifier.
	NotificationQueue string `envconfig:"NOTIFICATION_QUEUE_URL" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"AuroraWatch"`
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
