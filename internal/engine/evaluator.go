package engine

import (
	"fmt"
	"time"

	"aurorawatch/internal/series"
	"aurorawatch/internal/types"
)

// criticalNowcastIndex is the 1-minute estimated Kp above which a firing
// forecast verdict is upgraded to critical, provided present-moment sky
// conditions already qualify.
const criticalNowcastIndex = 7.0

// Thresholds holds the numeric and temporal parameters both channel
// evaluators operate against.
type Thresholds struct {
	ImmediateMinIndex   float64
	ForecastMinIndex    float64
	MaxCloud            float64
	ForecastWindowHours float64
	PeakWindowHours     float64
}

// EvaluateImmediate produces the verdict for the immediate channel at the
// given instant. It fires iff the current index meets the threshold and the
// closest sky sample is night with acceptable cloud cover.
//
// The index threshold is checked first; a failed threshold short-circuits
// before any sky lookup. A no_data answer from either series downgrades to
// a non-firing verdict rather than an error.
func EvaluateImmediate(now time.Time, idx *series.IndexSeries, sky *series.SkySeries, th Thresholds) types.Verdict {
	v := types.Verdict{Channel: types.ChannelImmediate}

	current, err := idx.CurrentValue()
	if err != nil {
		v.Reason = "no current index reading"
		return v
	}
	v.IndexValue = current.Value

	if current.Value < th.ImmediateMinIndex {
		v.Reason = fmt.Sprintf("index %.1f below threshold %.1f", current.Value, th.ImmediateMinIndex)
		return v
	}

	conditions, err := sky.ConditionsAt(now)
	if err != nil {
		v.Reason = "no sky conditions available"
		return v
	}
	if !conditions.IsNight {
		v.Reason = "daylight at observer location"
		return v
	}
	if conditions.CloudFraction > th.MaxCloud {
		v.Reason = fmt.Sprintf("cloud cover %.0f%% above limit %.0f%%", conditions.CloudFraction, th.MaxCloud)
		return v
	}

	v.Fires = true
	v.Urgency = types.UrgencyCritical
	v.Reason = fmt.Sprintf("index %.1f with clear night sky (%.0f%% cloud)", current.Value, conditions.CloudFraction)
	return v
}

// EvaluateForecast produces the verdict for the forecast channel. It fires
// iff the forecast peak within the horizon meets the threshold and at least
// one qualifying night-and-clear sample exists within the peak window
// radius. The verdict carries the peak value, the peak time, and the
// earliest qualifying sample as witness.
func EvaluateForecast(now time.Time, idx *series.IndexSeries, sky *series.SkySeries, th Thresholds) types.Verdict {
	v := types.Verdict{Channel: types.ChannelForecast}

	horizon := now.Add(time.Duration(th.ForecastWindowHours * float64(time.Hour)))
	peak, err := idx.MaxInWindow(now, horizon)
	if err != nil {
		v.Reason = "no forecast readings in horizon"
		return v
	}
	v.IndexValue = peak.Value
	peakTime := peak.Timestamp
	v.PeakTime = &peakTime

	if peak.Value < th.ForecastMinIndex {
		v.Reason = fmt.Sprintf("forecast peak %.1f below threshold %.1f", peak.Value, th.ForecastMinIndex)
		return v
	}

	witness := FindBestWindow(sky.SamplesInRadius(peakTime, th.PeakWindowHours), th.MaxCloud)
	if witness == nil {
		v.Reason = fmt.Sprintf("no night+clear window within %.0fh of peak", th.PeakWindowHours)
		return v
	}

	v.Fires = true
	v.Witness = witness
	v.Urgency = types.UrgencyElevated
	v.Reason = fmt.Sprintf("forecast peak %.1f at %s, viewing window at %s",
		peak.Value, peakTime.Format(time.RFC3339), witness.Timestamp.Format(time.RFC3339))
	return v
}

// ClassifyUrgency upgrades a firing forecast verdict to critical when the
// near-real-time nowcast index is already at storm levels and present-moment
// sky conditions qualify. Non-firing verdicts and verdicts of other channels
// are returned unchanged.
func ClassifyUrgency(v types.Verdict, nowcast *types.IndexSample, nowSky *types.SkySample, maxCloud float64) types.Verdict {
	if !v.Fires || v.Channel != types.ChannelForecast {
		return v
	}
	if nowcast == nil || nowSky == nil {
		return v
	}
	if nowcast.Value >= criticalNowcastIndex && nowSky.IsNight && nowSky.CloudFraction <= maxCloud {
		v.Urgency = types.UrgencyCritical
	}
	return v
}
