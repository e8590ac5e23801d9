package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aurorawatch/internal/types"
)

// NOAA SWPC product paths served under the base URL.
const (
	kpObservedPath = "/products/noaa-planetary-k-index.json"
	kpForecastPath = "/products/noaa-planetary-k-index-forecast.json"
	kpNowcastPath  = "/json/planetary_k_index_1m.json"
)

// DefaultSWPCBaseURL is the production SWPC endpoint.
const DefaultSWPCBaseURL = "https://services.swpc.noaa.gov"

// noaaTimeLayouts lists the timestamp variants SWPC feeds emit.
var noaaTimeLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z",
	"2006-01-02T15:04",
}

// leadingNumber extracts the numeric prefix from index values like "6P" or
// "7.33+" that some feeds emit.
var leadingNumber = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\d*\.?\d+)`)

// SWPCClient retrieves planetary K-index readings from NOAA SWPC.
// The products are header-row tables: the first row names the columns and
// each following row is [time_tag, kp, ...] with string cells.
type SWPCClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// SWPCClientConfig holds the configuration for creating an SWPCClient.
type SWPCClientConfig struct {
	// BaseURL overrides the production endpoint, e.g. for tests.
	BaseURL string
	Logger  *slog.Logger
}

// NewSWPCClient creates an SWPCClient on top of the given resilient client.
func NewSWPCClient(base *BaseClient, cfg SWPCClientConfig) *SWPCClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultSWPCBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SWPCClient{base: base, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// FetchCurrentIndex returns the most recent observed K-index reading: the
// last row of the observed product.
func (c *SWPCClient) FetchCurrentIndex(ctx context.Context) (types.IndexSample, error) {
	samples, err := c.fetchProduct(ctx, kpObservedPath)
	if err != nil {
		return types.IndexSample{}, err
	}
	if len(samples) == 0 {
		return types.IndexSample{}, types.NewAppError(types.ErrCodeUpstreamIndex,
			"observed K-index product is empty", nil)
	}
	return samples[len(samples)-1], nil
}

// FetchForecastIndex returns the forecast product rows. Filtering to the
// forecast horizon is the series' job, not the client's.
func (c *SWPCClient) FetchForecastIndex(ctx context.Context) ([]types.IndexSample, error) {
	return c.fetchProduct(ctx, kpForecastPath)
}

// fetchProduct retrieves a header-row table product and parses its data
// rows. Rows with unparsable cells are skipped.
func (c *SWPCClient) fetchProduct(ctx context.Context, path string) ([]types.IndexSample, error) {
	var rows [][]any
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var samples []types.IndexSample
	for _, row := range rows[1:] { // rows[0] is the header
		if len(row) < 2 {
			continue
		}
		ts, ok := parseNOAATime(asString(row[0]))
		if !ok {
			continue
		}
		value, ok := asIndexValue(row[1])
		if !ok {
			continue
		}
		samples = append(samples, types.IndexSample{Timestamp: ts, Value: value})
	}
	return samples, nil
}

// FetchNowcast returns the near-real-time 1-minute estimated K index. The
// feed has shipped in several shapes over time (header-row table, list of
// objects, wrapper object), so parsing is deliberately tolerant; anything
// unusable yields a no_data error, never a cycle failure.
func (c *SWPCClient) FetchNowcast(ctx context.Context) (types.IndexSample, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, kpNowcastPath, &raw); err != nil {
		return types.IndexSample{}, types.NewAppError(types.ErrCodeNoData,
			"nowcast feed unavailable", err)
	}

	if sample, ok := parseNowcast(raw); ok {
		return sample, nil
	}
	return types.IndexSample{}, types.NewAppError(types.ErrCodeNoData,
		"nowcast feed in unrecognised format", nil)
}

// parseNowcast attempts each known nowcast payload shape in turn.
func parseNowcast(raw json.RawMessage) (types.IndexSample, bool) {
	// Shape A: header-row table.
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err == nil {
		if len(rows) < 2 {
			return types.IndexSample{}, false
		}
		last := rows[len(rows)-1]
		if len(last) < 2 {
			return types.IndexSample{}, false
		}
		return sampleFromPair(asString(last[0]), last[1])
	}

	// Shape B: list of objects.
	var objects []map[string]any
	if err := json.Unmarshal(raw, &objects); err == nil {
		if len(objects) == 0 {
			return types.IndexSample{}, false
		}
		return sampleFromObject(objects[len(objects)-1])
	}

	// Shape C: wrapper object, either {"data": [...]} style or a single record.
	var wrapper map[string]any
	if err := json.Unmarshal(raw, &wrapper); err == nil {
		for _, key := range []string{"data", "values", "k_index", "planetary_k_index", "results"} {
			if list, ok := wrapper[key].([]any); ok && len(list) > 0 {
				if obj, ok := list[len(list)-1].(map[string]any); ok {
					return sampleFromObject(obj)
				}
			}
		}
		return sampleFromObject(wrapper)
	}

	return types.IndexSample{}, false
}

// sampleFromObject extracts a reading from a nowcast record, trying the
// key variants the feed has used.
func sampleFromObject(obj map[string]any) (types.IndexSample, bool) {
	var value any
	for _, key := range []string{"kp", "estimated_kp", "k_index", "kp_index", "kp_value", "value"} {
		if v, ok := obj[key]; ok && v != nil {
			value = v
			break
		}
	}
	var timeVal string
	for _, key := range []string{"time_tag", "time", "datetime", "timestamp", "date"} {
		if v, ok := obj[key]; ok && v != nil {
			timeVal = asString(v)
			break
		}
	}
	if value == nil || timeVal == "" {
		return types.IndexSample{}, false
	}
	return sampleFromPair(timeVal, value)
}

func sampleFromPair(timeTag string, value any) (types.IndexSample, bool) {
	ts, ok := parseNOAATime(timeTag)
	if !ok {
		return types.IndexSample{}, false
	}
	v, ok := asIndexValue(value)
	if !ok {
		return types.IndexSample{}, false
	}
	return types.IndexSample{Timestamp: ts, Value: v}, true
}

// getJSON performs a GET against the SWPC base URL and decodes the body.
func (c *SWPCClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamIndex, "building SWPC request", err)
	}
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	resp, err := c.base.Do(req)
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamIndex, "fetching "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.NewAppError(types.ErrCodeUpstreamIndex,
			fmt.Sprintf("SWPC returned %d for %s", resp.StatusCode, path), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamIndex, "reading SWPC response", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamIndex, "decoding SWPC response", err)
	}
	return nil
}

// parseNOAATime parses an SWPC time tag against the known layout variants.
// All SWPC timestamps are UTC.
func parseNOAATime(tag string) (time.Time, bool) {
	for _, layout := range noaaTimeLayouts {
		if ts, err := time.Parse(layout, tag); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// asIndexValue coerces a product cell to a K-index value. String cells may
// carry suffixes ("6P", "7.33+"); the leading number wins.
func asIndexValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", ".")
		m := leadingNumber.FindString(s)
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
