// Package engine implements the aurora alert decision core: the viewing
// window search, the per-channel condition evaluators, the cooldown and
// dedup gates, and the orchestrator that runs one evaluate-and-exit cycle.
package engine

import "aurorawatch/internal/types"

// FindBestWindow scans samples in ascending timestamp order and returns the
// first one that qualifies as an observing moment: night-time and cloud
// fraction at or below maxCloud. Returns nil if no sample qualifies.
//
// First-fit is deliberate: the earliest qualifying moment is the most
// actionable recommendation, and there is no need to optimise over cloud
// fraction beyond the threshold.
func FindBestWindow(samples []types.SkySample, maxCloud float64) *types.WindowMatch {
	for _, s := range samples {
		if !s.IsNight {
			continue
		}
		if s.CloudFraction > maxCloud {
			continue
		}
		return &types.WindowMatch{
			Timestamp:     s.Timestamp,
			CloudFraction: s.CloudFraction,
		}
	}
	return nil
}
