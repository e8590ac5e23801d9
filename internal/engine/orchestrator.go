package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aurorawatch/internal/series"
	"aurorawatch/internal/state"
	"aurorawatch/internal/types"
)

// Channel evaluation outcomes reported to metrics.
const (
	OutcomeFired         = "fired"
	OutcomeNotMet        = "not_met"
	OutcomeCooldown      = "cooldown"
	OutcomeDuplicatePeak = "duplicate_peak"
)

// IndexSource retrieves geomagnetic index readings from the upstream
// provider. Failures are fatal for the invocation, except FetchNowcast
// which is best-effort.
type IndexSource interface {
	FetchCurrentIndex(ctx context.Context) (types.IndexSample, error)
	FetchForecastIndex(ctx context.Context) ([]types.IndexSample, error)
	// FetchNowcast returns the near-real-time estimated index. A no_data
	// error means the feed is unavailable or unparsable; callers treat
	// that as "no nowcast", never as a cycle failure.
	FetchNowcast(ctx context.Context) (types.IndexSample, error)
}

// SkySource retrieves local observing conditions from the upstream provider.
type SkySource interface {
	FetchCurrentSky(ctx context.Context) (types.SkySample, error)
	FetchForecastSky(ctx context.Context) ([]types.SkySample, error)
}

// Notifier receives firing verdicts after the state commit succeeded. The
// engine hands over structured facts only; rendering and delivery live
// outside the decision core.
type Notifier interface {
	Notify(ctx context.Context, v types.Verdict) error
}

// CycleMetrics records per-channel outcomes and cycle timing. Implementations
// must never fail the cycle.
type CycleMetrics interface {
	RecordOutcome(ctx context.Context, channel types.AlertChannel, outcome string)
	RecordCycleDuration(ctx context.Context, d time.Duration)
}

// Orchestrator runs one evaluate-and-exit cycle per process invocation:
// load state, fetch fresh data, evaluate each configured channel, gate
// against persisted state, commit, notify.
type Orchestrator struct {
	indexSource IndexSource
	skySource   SkySource
	store       state.Store
	notifier    Notifier
	metrics     CycleMetrics
	clock       types.Clock
	logger      *slog.Logger

	thresholds        Thresholds
	immediateCooldown time.Duration
	forecastCooldown  time.Duration
	forecastEnabled   bool
	nowcastEnabled    bool
}

// OrchestratorConfig holds the dependencies and tuning for an Orchestrator.
type OrchestratorConfig struct {
	IndexSource IndexSource
	SkySource   SkySource
	Store       state.Store
	Notifier    Notifier
	Metrics     CycleMetrics
	Clock       types.Clock
	Logger      *slog.Logger

	Thresholds        Thresholds
	ImmediateCooldown time.Duration
	ForecastCooldown  time.Duration
	ForecastEnabled   bool
	NowcastEnabled    bool
}

// NewOrchestrator creates an Orchestrator from the given configuration.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Orchestrator{
		indexSource:       cfg.IndexSource,
		skySource:         cfg.SkySource,
		store:             cfg.Store,
		notifier:          cfg.Notifier,
		metrics:           cfg.Metrics,
		clock:             clock,
		logger:            logger,
		thresholds:        cfg.Thresholds,
		immediateCooldown: cfg.ImmediateCooldown,
		forecastCooldown:  cfg.ForecastCooldown,
		forecastEnabled:   cfg.ForecastEnabled,
		nowcastEnabled:    cfg.NowcastEnabled,
	}
}

// RunCycle executes one decision cycle. Upstream fetch failures and state
// persist failures abort the cycle with no verdicts emitted; the external
// scheduler owns retries.
func (o *Orchestrator) RunCycle(ctx context.Context) (types.CycleSummary, error) {
	now := o.clock.Now()
	started := now
	summary := types.CycleSummary{Decisions: make(map[types.AlertChannel]types.GateDecision)}

	states, err := o.store.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("loading alert state: %w", err)
	}

	indexSeries, nowcast, err := o.fetchIndexData(ctx)
	if err != nil {
		return summary, err
	}
	skySeries, currentSky, err := o.fetchSkyData(ctx)
	if err != nil {
		return summary, err
	}

	verdicts := []types.Verdict{EvaluateImmediate(now, indexSeries, skySeries, o.thresholds)}
	if o.forecastEnabled {
		fv := EvaluateForecast(now, indexSeries, skySeries, o.thresholds)
		fv = ClassifyUrgency(fv, nowcast, currentSky, o.thresholds.MaxCloud)
		verdicts = append(verdicts, fv)
	}

	for _, v := range verdicts {
		summary.Evaluated++
		if err := o.settle(ctx, now, v, states, &summary); err != nil {
			return summary, err
		}
	}

	if o.metrics != nil {
		o.metrics.RecordCycleDuration(ctx, o.clock.Now().Sub(started))
	}
	o.logger.InfoContext(ctx, "cycle complete",
		"evaluated", summary.Evaluated,
		"fired", summary.Fired,
		"suppressed", summary.Suppressed,
	)
	return summary, nil
}

// settle runs one verdict through the state gates and, when allowed,
// commits the successor state before handing the verdict to the notifier.
func (o *Orchestrator) settle(ctx context.Context, now time.Time, v types.Verdict, states map[string]types.AlertState, summary *types.CycleSummary) error {
	if !v.Fires {
		o.logger.InfoContext(ctx, "channel did not fire",
			"channel", string(v.Channel),
			"reason", v.Reason,
		)
		o.recordOutcome(ctx, v.Channel, OutcomeNotMet)
		return nil
	}

	prev, ok := states[string(v.Channel)]
	if !ok {
		// Bootstrap: never fired, all gates open.
		prev = types.AlertState{ChannelID: string(v.Channel)}
	}

	decision, next := ApplyGates(now, v, prev, o.cooldownFor(v.Channel))
	summary.Decisions[v.Channel] = decision

	switch decision {
	case types.GateCooldown:
		summary.Suppressed++
		o.logger.InfoContext(ctx, "verdict suppressed by cooldown",
			"channel", string(v.Channel),
			"last_fired_at", prev.LastFiredAt,
		)
		o.recordOutcome(ctx, v.Channel, OutcomeCooldown)
		return nil
	case types.GateDuplicatePeak:
		summary.Suppressed++
		o.logger.InfoContext(ctx, "verdict suppressed as duplicate peak",
			"channel", string(v.Channel),
			"peak_time", v.PeakTime,
		)
		o.recordOutcome(ctx, v.Channel, OutcomeDuplicatePeak)
		return nil
	}

	// Commit before notifying: if the state write fails, the notifier must
	// never see the verdict, or the cooldown guarantee is lost.
	if err := o.store.Commit(ctx, prev, next); err != nil {
		return fmt.Errorf("committing alert state for %s: %w", v.Channel, err)
	}
	states[string(v.Channel)] = next

	if err := o.notifier.Notify(ctx, v); err != nil {
		return fmt.Errorf("notifying %s verdict: %w", v.Channel, err)
	}

	summary.Fired++
	o.logger.InfoContext(ctx, "verdict fired",
		"channel", string(v.Channel),
		"index_value", v.IndexValue,
		"urgency", string(v.Urgency),
		"peak_time", v.PeakTime,
	)
	o.recordOutcome(ctx, v.Channel, OutcomeFired)
	return nil
}

// fetchIndexData pulls the index readings needed for the configured
// channels plus, when enabled, the best-effort nowcast.
func (o *Orchestrator) fetchIndexData(ctx context.Context) (*series.IndexSeries, *types.IndexSample, error) {
	current, err := o.indexSource.FetchCurrentIndex(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching current index: %w", err)
	}

	var forecast []types.IndexSample
	if o.forecastEnabled {
		forecast, err = o.indexSource.FetchForecastIndex(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching forecast index: %w", err)
		}
	}

	var nowcast *types.IndexSample
	if o.nowcastEnabled {
		sample, err := o.indexSource.FetchNowcast(ctx)
		if err != nil {
			o.logger.WarnContext(ctx, "nowcast unavailable", "error", err)
		} else {
			nowcast = &sample
		}
	}

	return series.NewIndexSeries([]types.IndexSample{current}, forecast), nowcast, nil
}

// fetchSkyData pulls present-moment conditions and, when the forecast
// channel is enabled, the hourly outlook, merged into one series.
func (o *Orchestrator) fetchSkyData(ctx context.Context) (*series.SkySeries, *types.SkySample, error) {
	current, err := o.skySource.FetchCurrentSky(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching current sky conditions: %w", err)
	}

	samples := []types.SkySample{current}
	if o.forecastEnabled {
		forecast, err := o.skySource.FetchForecastSky(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching sky forecast: %w", err)
		}
		samples = append(samples, forecast...)
	}

	return series.NewSkySeries(samples), &current, nil
}

func (o *Orchestrator) cooldownFor(ch types.AlertChannel) time.Duration {
	if ch == types.ChannelForecast {
		return o.forecastCooldown
	}
	return o.immediateCooldown
}

func (o *Orchestrator) recordOutcome(ctx context.Context, ch types.AlertChannel, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordOutcome(ctx, ch, outcome)
	}
}
