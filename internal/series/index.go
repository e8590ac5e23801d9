// Package series provides ordered, time-indexed views over the two upstream
// data feeds: the geomagnetic index readings and the local sky condition
// samples. Both are immutable value types built once per invocation.
package series

import (
	"sort"
	"time"

	"aurorawatch/internal/types"
)

// IndexSeries is an ordered sequence of geomagnetic index readings spanning
// "now" (observed) and a forward horizon (forecast).
type IndexSeries struct {
	observed []types.IndexSample
	forecast []types.IndexSample
}

// NewIndexSeries builds an IndexSeries from observed and forecast readings.
// Both inputs are copied and sorted by timestamp ascending.
func NewIndexSeries(observed, forecast []types.IndexSample) *IndexSeries {
	return &IndexSeries{
		observed: sortedSamples(observed),
		forecast: sortedSamples(forecast),
	}
}

func sortedSamples(in []types.IndexSample) []types.IndexSample {
	out := make([]types.IndexSample, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// CurrentValue returns the reading most closely associated with "now": the
// most recent observed sample. Returns a no_data error if there are no
// observed readings.
func (s *IndexSeries) CurrentValue() (types.IndexSample, error) {
	if len(s.observed) == 0 {
		return types.IndexSample{}, types.NewAppError(types.ErrCodeNoData,
			"index series has no observed readings", nil)
	}
	return s.observed[len(s.observed)-1], nil
}

// MaxInWindow returns the maximum forecast value among readings whose
// timestamp lies in [start, end], boundaries inclusive. On equal maxima the
// earliest timestamp wins. Returns a no_data error if the window contains
// no readings.
func (s *IndexSeries) MaxInWindow(start, end time.Time) (types.IndexSample, error) {
	var best types.IndexSample
	found := false
	for _, sample := range s.forecast {
		if sample.Timestamp.Before(start) || sample.Timestamp.After(end) {
			continue
		}
		// Strict > keeps the first occurrence on ties.
		if !found || sample.Value > best.Value {
			best = sample
			found = true
		}
	}
	if !found {
		return types.IndexSample{}, types.NewAppError(types.ErrCodeNoData,
			"no forecast readings in window", nil)
	}
	return best, nil
}
