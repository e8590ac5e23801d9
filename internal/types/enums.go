package types

// AlertChannel identifies which temporal condition an alert evaluates.
type AlertChannel string

const (
	// ChannelImmediate fires on present-moment activity and sky conditions.
	ChannelImmediate AlertChannel = "immediate"
	// ChannelForecast fires on a predicted activity peak within the horizon.
	ChannelForecast AlertChannel = "forecast"
)

// Urgency ranks how actionable a firing verdict is for the observer.
type Urgency string

const (
	// UrgencyCritical means conditions are favourable right now.
	UrgencyCritical Urgency = "critical"
	// UrgencyElevated means a qualifying viewing window is coming up.
	UrgencyElevated Urgency = "elevated"
	UrgencyRoutine  Urgency = "routine"
)

// GateDecision is the outcome of running a firing verdict through the
// alert state gates.
type GateDecision string

const (
	// GateAllow lets the verdict through to the notifier.
	GateAllow GateDecision = "allow"
	// GateCooldown suppresses a verdict because the channel fired recently.
	GateCooldown GateDecision = "cooldown"
	// GateDuplicatePeak suppresses a forecast verdict for an already
	// notified peak while the cooldown is still running.
	GateDuplicatePeak GateDecision = "duplicate_peak"
)
