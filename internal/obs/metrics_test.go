package obs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"aurorawatch/internal/types"
)

// mockCloudWatchAPI captures PutMetricData inputs.
type mockCloudWatchAPI struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatchAPI) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func dimensionValue(datum cwtypes.MetricDatum, name string) string {
	for _, d := range datum.Dimensions {
		if *d.Name == name {
			return *d.Value
		}
	}
	return ""
}

func TestRecordOutcome_EmitsDimensions(t *testing.T) {
	api := &mockCloudWatchAPI{}
	metrics := NewCloudWatchCycleMetrics(api, "AuroraWatch", nil)

	metrics.RecordOutcome(context.Background(), types.ChannelForecast, "duplicate_peak")

	if len(api.inputs) != 1 {
		t.Fatalf("got %d PutMetricData calls, want 1", len(api.inputs))
	}
	input := api.inputs[0]
	if *input.Namespace != "AuroraWatch" {
		t.Errorf("namespace = %q", *input.Namespace)
	}
	datum := input.MetricData[0]
	if *datum.MetricName != MetricChannelOutcome {
		t.Errorf("metric = %q, want %s", *datum.MetricName, MetricChannelOutcome)
	}
	if got := dimensionValue(datum, DimChannel); got != "forecast" {
		t.Errorf("Channel dimension = %q, want forecast", got)
	}
	if got := dimensionValue(datum, DimOutcome); got != "duplicate_peak" {
		t.Errorf("Outcome dimension = %q, want duplicate_peak", got)
	}
}

func TestRecordCycleDuration_Milliseconds(t *testing.T) {
	api := &mockCloudWatchAPI{}
	metrics := NewCloudWatchCycleMetrics(api, "AuroraWatch", nil)

	metrics.RecordCycleDuration(context.Background(), 1500*time.Millisecond)

	datum := api.inputs[0].MetricData[0]
	if *datum.Value != 1500 {
		t.Errorf("value = %v, want 1500", *datum.Value)
	}
	if datum.Unit != cwtypes.StandardUnitMilliseconds {
		t.Errorf("unit = %s, want milliseconds", datum.Unit)
	}
}

func TestRecordOutcome_FailureIsSwallowed(t *testing.T) {
	api := &mockCloudWatchAPI{err: errors.New("throttled")}
	metrics := NewCloudWatchCycleMetrics(api, "AuroraWatch", nil)

	// Must not panic or propagate.
	metrics.RecordOutcome(context.Background(), types.ChannelImmediate, "fired")
	metrics.RecordCycleDuration(context.Background(), time.Second)
}
