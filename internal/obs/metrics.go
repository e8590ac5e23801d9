// Package obs emits operational metrics for alert cycles. Metric failures
// are logged and swallowed; observability must never fail an invocation.
package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"aurorawatch/internal/types"
)

// Metric and dimension names published to CloudWatch.
const (
	MetricChannelOutcome = "ChannelOutcome"
	MetricCycleDuration  = "CycleDuration"

	DimChannel = "Channel"
	DimOutcome = "Outcome"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchCycleMetrics publishes per-channel outcomes and cycle timing
// to a CloudWatch namespace.
//
// Metrics emitted:
//   - ChannelOutcome: Dims {Channel, Outcome} -- one count per evaluated channel
//   - CycleDuration: No dims -- wall time of a full evaluation cycle
type CloudWatchCycleMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchCycleMetrics creates metrics publishing to the given
// namespace.
func NewCloudWatchCycleMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCycleMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCycleMetrics{client: client, namespace: namespace, logger: logger}
}

// RecordOutcome emits a ChannelOutcome count with Channel and Outcome
// dimensions.
func (m *CloudWatchCycleMetrics) RecordOutcome(ctx context.Context, channel types.AlertChannel, outcome string) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricChannelOutcome),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(DimChannel),
						Value: aws.String(string(channel)),
					},
					{
						Name:  aws.String(DimOutcome),
						Value: aws.String(outcome),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.WarnContext(ctx, "failed to record outcome metric",
			"error", err.Error(),
			"channel", string(channel),
			"outcome", outcome,
		)
	}
}

// RecordCycleDuration emits the wall time of a full cycle in milliseconds.
func (m *CloudWatchCycleMetrics) RecordCycleDuration(ctx context.Context, d time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricCycleDuration),
				Value:      aws.Float64(float64(d.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.WarnContext(ctx, "failed to record cycle duration metric",
			"error", err.Error(),
			"duration_ms", d.Milliseconds(),
		)
	}
}

// NoopMetrics discards all observations. Used for local runs.
type NoopMetrics struct{}

func (NoopMetrics) RecordOutcome(context.Context, types.AlertChannel, string) {}

func (NoopMetrics) RecordCycleDuration(context.Context, time.Duration) {}
