package engine

import (
	"time"

	"aurorawatch/internal/types"
)

// ApplyGates runs a firing verdict through the per-channel state gates and,
// when allowed, returns the successor state to commit.
//
// Gate order:
//  1. Cooldown: suppress when now - LastFiredAt < cooldown, regardless of
//     the evaluator's answer.
//  2. Dedup (forecast only): a suppressed verdict whose peak matches the
//     last notified peak is reported as duplicate_peak rather than cooldown.
//     Once the cooldown has elapsed the same peak is allowed to re-fire;
//     cooldown dominates dedup.
//
// An empty prior state (never fired) leaves all gates open.
func ApplyGates(now time.Time, v types.Verdict, prev types.AlertState, cooldown time.Duration) (types.GateDecision, types.AlertState) {
	if prev.LastFiredAt != nil && now.Sub(*prev.LastFiredAt) < cooldown {
		if v.Channel == types.ChannelForecast && samePeak(prev.LastNotifiedPeakAt, v.PeakTime) {
			return types.GateDuplicatePeak, prev
		}
		return types.GateCooldown, prev
	}

	next := prev
	firedAt := now
	next.LastFiredAt = &firedAt
	if v.Channel == types.ChannelForecast && v.PeakTime != nil {
		peak := *v.PeakTime
		next.LastNotifiedPeakAt = &peak
	}
	return types.GateAllow, next
}

func samePeak(last, current *time.Time) bool {
	return last != nil && current != nil && last.Equal(*current)
}
