package series

import (
	"sort"
	"time"

	"aurorawatch/internal/types"
)

// SkySeries is an ordered sequence of local observing condition samples.
type SkySeries struct {
	samples []types.SkySample
}

// NewSkySeries builds a SkySeries from the given samples, copied and sorted
// by timestamp ascending.
func NewSkySeries(samples []types.SkySample) *SkySeries {
	out := make([]types.SkySample, len(samples))
	copy(out, samples)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return &SkySeries{samples: out}
}

// ConditionsAt returns the sample whose timestamp is closest to approx.
// Returns a no_data error if the series is empty.
func (s *SkySeries) ConditionsAt(approx time.Time) (types.SkySample, error) {
	if len(s.samples) == 0 {
		return types.SkySample{}, types.NewAppError(types.ErrCodeNoData,
			"sky series is empty", nil)
	}
	best := s.samples[0]
	bestDist := absDuration(best.Timestamp.Sub(approx))
	for _, sample := range s.samples[1:] {
		if d := absDuration(sample.Timestamp.Sub(approx)); d < bestDist {
			best = sample
			bestDist = d
		}
	}
	return best, nil
}

// SamplesInRadius returns all samples with |timestamp - center| <=
// radiusHours hours, ordered by timestamp ascending. May be empty.
func (s *SkySeries) SamplesInRadius(center time.Time, radiusHours float64) []types.SkySample {
	radius := time.Duration(radiusHours * float64(time.Hour))
	var out []types.SkySample
	for _, sample := range s.samples {
		if absDuration(sample.Timestamp.Sub(center)) <= radius {
			out = append(out, sample)
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
