package alerting

import (
	"RSIPulse/internal/domain/models"
)

// Classify maps an RSI value to its raw zone under the rule's thresholds,
// before hysteresis is applied.
func Classify(rule models.AlertRule, value float64) models.Zone {
	switch {
	case value >= rule.Overbought:
		return models.ZoneOverbought
	case value <= rule.Oversold:
		return models.ZoneOversold
	default:
		return models.ZoneNeutral
	}
}

// Transition advances the alert state of one pair with a new RSI point and
// returns the event it produced, or nil.
//
// Leaving an extreme zone requires clearing the threshold by the hysteresis
// margin, so values oscillating around the threshold do not flap. A transition
// landing inside the debounce window of the previous one is suppressed and the
// state stays where it was. The first point after registration only sets the
// baseline zone.
func Transition(rule models.AlertRule, state *models.AlertState, pair models.Pair, point *models.RSIPoint) *models.AlertEvent {
	next := resolve(rule, state.Zone, point.Value)

	if !state.Primed {
		state.Zone = next
		state.Primed = true
		return nil
	}
	if next == state.Zone {
		return nil
	}
	if rule.Debounce > 0 && !state.LastTransition.IsZero() &&
		point.Timestamp.Sub(state.LastTransition) < rule.Debounce {
		return nil
	}

	ev := &models.AlertEvent{
		Symbol:    pair.Symbol,
		Timeframe: pair.Timeframe,
		From:      state.Zone,
		To:        next,
		RSI:       point.Value,
		Timestamp: point.Timestamp,
	}
	state.Zone = next
	state.LastTransition = point.Timestamp
	return ev
}

// resolve applies hysteresis on top of the raw thresholds: once inside an
// extreme zone the pair stays there until the value clears the threshold by
// the configured margin.
func resolve(rule models.AlertRule, current models.Zone, value float64) models.Zone {
	raw := Classify(rule, value)

	switch current {
	case models.ZoneOverbought:
		if raw == models.ZoneOversold {
			return models.ZoneOversold
		}
		if value <= rule.Overbought-rule.Hysteresis {
			return models.ZoneNeutral
		}
		return models.ZoneOverbought
	case models.ZoneOversold:
		if raw == models.ZoneOverbought {
			return models.ZoneOverbought
		}
		if value >= rule.Oversold+rule.Hysteresis {
			return models.ZoneNeutral
		}
		return models.ZoneOversold
	default:
		return raw
	}
}
