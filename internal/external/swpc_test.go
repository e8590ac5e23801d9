package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurorawatch/internal/types"
)

func newSWPCTestClient(t *testing.T, handler http.Handler) (*SWPCClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := newTestClient(t, RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Millisecond})
	return NewSWPCClient(base, SWPCClientConfig{BaseURL: server.URL}), server
}

func serveJSON(t *testing.T, routes map[string]string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
}

func TestFetchCurrentIndex_LastRowWins(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpObservedPath: `[
			["time_tag","kp","a_running","station_count"],
			["2026-03-01 18:00:00.000","4.33","18","8"],
			["2026-03-01 21:00:00.000","6.67","32","8"]
		]`,
	}))

	sample, err := client.FetchCurrentIndex(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 6.67, sample.Value, 1e-9)
	assert.Equal(t, time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC), sample.Timestamp)
}

func TestFetchCurrentIndex_EmptyProduct(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpObservedPath: `[["time_tag","kp"]]`,
	}))

	_, err := client.FetchCurrentIndex(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeUpstreamIndex, types.CodeOf(err))
}

func TestFetchForecastIndex_ParsesAllRows(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpForecastPath: `[
			["time_tag","kp","observed","noaa_scale"],
			["2026-03-01 21:00:00","5.67","observed",null],
			["2026-03-02 00:00:00","7.33","predicted","G3"],
			["2026-03-02 03:00:00","6P","predicted","G2"]
		]`,
	}))

	samples, err := client.FetchForecastIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 7.33, samples[1].Value, 1e-9)
	// Suffixed index values keep their numeric prefix.
	assert.InDelta(t, 6.0, samples[2].Value, 1e-9)
}

func TestFetchForecastIndex_SkipsMalformedRows(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpForecastPath: `[
			["time_tag","kp"],
			["not a timestamp","5.0"],
			["2026-03-02 00:00:00","???"],
			["2026-03-02 03:00:00","4.0"]
		]`,
	}))

	samples, err := client.FetchForecastIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 4.0, samples[0].Value, 1e-9)
}

func TestFetchNowcast_HeaderRowTable(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpNowcastPath: `[
			["time_tag","estimated_kp"],
			["2026-03-01T21:58:00Z","6.9"],
			["2026-03-01T21:59:00Z","7.1"]
		]`,
	}))

	sample, err := client.FetchNowcast(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.1, sample.Value, 1e-9)
}

func TestFetchNowcast_ListOfObjects(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpNowcastPath: `[
			{"time_tag":"2026-03-01T21:58:00","estimated_kp":6.33},
			{"time_tag":"2026-03-01T21:59:00","estimated_kp":7.67}
		]`,
	}))

	sample, err := client.FetchNowcast(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.67, sample.Value, 1e-9)
	assert.Equal(t, time.Date(2026, 3, 1, 21, 59, 0, 0, time.UTC), sample.Timestamp)
}

func TestFetchNowcast_WrapperObject(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpNowcastPath: `{"data":[{"time":"2026-03-01 21:59","kp_value":"7.3+"}]}`,
	}))

	sample, err := client.FetchNowcast(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.3, sample.Value, 1e-9)
}

func TestFetchNowcast_UnrecognisedShape_NoData(t *testing.T) {
	client, _ := newSWPCTestClient(t, serveJSON(t, map[string]string{
		kpNowcastPath: `"just a string"`,
	}))

	_, err := client.FetchNowcast(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsNoData(err))
}

func TestFetchNowcast_ServerError_NoData(t *testing.T) {
	client, _ := newSWPCTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.FetchNowcast(context.Background())
	require.Error(t, err)
	// Nowcast failures are always downgraded to no_data so the cycle
	// continues without them.
	assert.True(t, types.IsNoData(err))
}

func TestParseNOAATime_Layouts(t *testing.T) {
	cases := []string{
		"2026-03-01 21:00:00.000",
		"2026-03-01 21:00:00",
		"2026-03-01 21:00",
		"2026-03-01T21:00:00.000Z",
		"2026-03-01T21:00:00Z",
		"2026-03-01T21:00:00",
		"2026-03-01T21:00",
	}
	want := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	for _, raw := range cases {
		got, ok := parseNOAATime(raw)
		if !ok {
			t.Errorf("parseNOAATime(%q) failed", raw)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseNOAATime(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, ok := parseNOAATime("yesterday"); ok {
		t.Error("parseNOAATime should reject non-timestamps")
	}
}
