// Package types defines the domain model shared across the aurora alert
// engine: index and sky samples, alert channels, verdicts, and the persisted
// per-channel alert state.
package types

import "time"

// IndexSample is one observed or forecast reading of the planetary K index.
// Immutable once retrieved from the upstream provider.
type IndexSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SkySample is one reading (or hourly forecast) of local observing
// conditions. CloudFraction is a percentage in [0,100].
type SkySample struct {
	Timestamp     time.Time `json:"timestamp"`
	IsNight       bool      `json:"is_night"`
	CloudFraction float64   `json:"cloud_fraction"`
}

// WindowMatch is a witness sample proving a qualifying observing moment
// exists: it is only ever constructed from a SkySample that passed both the
// night and cloud predicates.
type WindowMatch struct {
	Timestamp     time.Time `json:"timestamp"`
	CloudFraction float64   `json:"cloud_fraction"`
}

// AlertState is the persisted per-channel notification record. It is the
// only entity with cross-invocation lifetime. LastFiredAt is monotonically
// non-decreasing across commits for a given channel; LastNotifiedPeakAt is
// set for the forecast channel only.
type AlertState struct {
	ChannelID          string     `json:"channel_id"`
	LastFiredAt        *time.Time `json:"last_fired_at,omitempty"`
	LastNotifiedPeakAt *time.Time `json:"last_notified_peak_at,omitempty"`
}

// Equal reports whether two states carry the same record. Timestamps are
// compared by instant, not by location.
func (s AlertState) Equal(other AlertState) bool {
	return s.ChannelID == other.ChannelID &&
		timePtrEqual(s.LastFiredAt, other.LastFiredAt) &&
		timePtrEqual(s.LastNotifiedPeakAt, other.LastNotifiedPeakAt)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Verdict is the structured outcome of evaluating one alert channel. When
// Fires is true and the state gates allow it, the verdict is handed to the
// notifier as-is; the engine never renders human-readable text.
type Verdict struct {
	Channel    AlertChannel `json:"channel"`
	Fires      bool         `json:"fires"`
	IndexValue float64      `json:"index_value"`
	PeakTime   *time.Time   `json:"peak_time,omitempty"`
	Witness    *WindowMatch `json:"witness,omitempty"`
	Urgency    Urgency      `json:"urgency,omitempty"`
	Reason     string       `json:"reason"`
}

// CycleSummary aggregates what happened during one orchestrator invocation,
// for logging and metrics.
type CycleSummary struct {
	Evaluated  int
	Fired      int
	Suppressed int
	Decisions  map[AlertChannel]GateDecision
}
