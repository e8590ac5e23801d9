// Package notify delivers firing alert verdicts to downstream consumers.
// The SQS publisher is the production path; the log notifier serves local
// runs and environments without a queue.
package notify

import (
	"context"
	"log/slog"

	"aurorawatch/internal/types"
)

// LogNotifier writes firing verdicts to the structured log instead of a
// queue. Used when NOTIFICATION_QUEUE_URL is unset.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger falls back to
// slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the verdict at INFO level.
func (n *LogNotifier) Notify(ctx context.Context, v types.Verdict) error {
	attrs := []any{
		slog.String("channel", string(v.Channel)),
		slog.Float64("index_value", v.IndexValue),
		slog.String("urgency", string(v.Urgency)),
		slog.String("reason", v.Reason),
	}
	if v.PeakTime != nil {
		attrs = append(attrs, slog.Time("peak_time", *v.PeakTime))
	}
	if v.Witness != nil {
		attrs = append(attrs,
			slog.Time("witness_time", v.Witness.Timestamp),
			slog.Float64("witness_cloud", v.Witness.CloudFraction))
	}
	n.logger.InfoContext(ctx, "aurora alert", attrs...)
	return nil
}
