package series

import (
	"testing"
	"time"

	"aurorawatch/internal/types"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", value, err)
	}
	return parsed
}

func indexSample(t *testing.T, when string, value float64) types.IndexSample {
	t.Helper()
	return types.IndexSample{Timestamp: ts(t, when), Value: value}
}

func TestCurrentValue_ReturnsMostRecentObserved(t *testing.T) {
	s := NewIndexSeries([]types.IndexSample{
		indexSample(t, "2026-03-01T12:00:00Z", 3.0),
		indexSample(t, "2026-03-01T18:00:00Z", 5.7),
		indexSample(t, "2026-03-01T15:00:00Z", 4.3),
	}, nil)

	current, err := s.CurrentValue()
	if err != nil {
		t.Fatalf("CurrentValue returned error: %v", err)
	}
	if current.Value != 5.7 {
		t.Errorf("CurrentValue = %.1f, want 5.7", current.Value)
	}
	if !current.Timestamp.Equal(ts(t, "2026-03-01T18:00:00Z")) {
		t.Errorf("CurrentValue timestamp = %s, want 18:00", current.Timestamp)
	}
}

func TestCurrentValue_EmptySeries_NoData(t *testing.T) {
	s := NewIndexSeries(nil, []types.IndexSample{
		indexSample(t, "2026-03-01T12:00:00Z", 6.0),
	})

	_, err := s.CurrentValue()
	if err == nil {
		t.Fatal("expected error for empty observed series")
	}
	if !types.IsNoData(err) {
		t.Errorf("error code = %s, want no_data", types.CodeOf(err))
	}
}

func TestMaxInWindow_PicksMaximum(t *testing.T) {
	s := NewIndexSeries(nil, []types.IndexSample{
		indexSample(t, "2026-03-01T12:00:00Z", 4.0),
		indexSample(t, "2026-03-01T15:00:00Z", 7.2),
		indexSample(t, "2026-03-01T18:00:00Z", 6.1),
	})

	peak, err := s.MaxInWindow(ts(t, "2026-03-01T10:00:00Z"), ts(t, "2026-03-02T10:00:00Z"))
	if err != nil {
		t.Fatalf("MaxInWindow returned error: %v", err)
	}
	if peak.Value != 7.2 {
		t.Errorf("peak value = %.1f, want 7.2", peak.Value)
	}
}

func TestMaxInWindow_BoundariesInclusive(t *testing.T) {
	start := ts(t, "2026-03-01T12:00:00Z")
	end := ts(t, "2026-03-01T18:00:00Z")
	s := NewIndexSeries(nil, []types.IndexSample{
		{Timestamp: start, Value: 5.0},
		{Timestamp: end, Value: 6.0},
		indexSample(t, "2026-03-01T11:59:59Z", 9.0),
		indexSample(t, "2026-03-01T18:00:01Z", 9.0),
	})

	peak, err := s.MaxInWindow(start, end)
	if err != nil {
		t.Fatalf("MaxInWindow returned error: %v", err)
	}
	if peak.Value != 6.0 {
		t.Errorf("peak value = %.1f, want 6.0 (samples outside boundaries must be excluded)", peak.Value)
	}
}

func TestMaxInWindow_TieKeepsEarliest(t *testing.T) {
	s := NewIndexSeries(nil, []types.IndexSample{
		indexSample(t, "2026-03-01T18:00:00Z", 7.0),
		indexSample(t, "2026-03-01T14:00:00Z", 7.0),
		indexSample(t, "2026-03-01T16:00:00Z", 7.0),
	})

	peak, err := s.MaxInWindow(ts(t, "2026-03-01T12:00:00Z"), ts(t, "2026-03-01T20:00:00Z"))
	if err != nil {
		t.Fatalf("MaxInWindow returned error: %v", err)
	}
	if !peak.Timestamp.Equal(ts(t, "2026-03-01T14:00:00Z")) {
		t.Errorf("tie broke to %s, want earliest occurrence 14:00", peak.Timestamp)
	}
}

func TestMaxInWindow_EmptyWindow_NoData(t *testing.T) {
	s := NewIndexSeries(nil, []types.IndexSample{
		indexSample(t, "2026-03-01T06:00:00Z", 8.0),
	})

	_, err := s.MaxInWindow(ts(t, "2026-03-01T12:00:00Z"), ts(t, "2026-03-02T12:00:00Z"))
	if !types.IsNoData(err) {
		t.Errorf("error code = %s, want no_data", types.CodeOf(err))
	}
}
