package models

import "time"

// AlertRule holds the thresholds driving the alert state machine for one pair.
// Owned by configuration; the engine never mutates it. Replacing a rule takes
// effect on the next ingested observation, never mid-computation.
type AlertRule struct {
	Overbought float64       `yaml:"overbought" default:"70"`
	Oversold   float64       `yaml:"oversold" default:"30"`
	Hysteresis float64       `yaml:"hysteresis" default:"2"`
	Debounce   time.Duration `yaml:"debounce" default:"5m"`
}

// AlertState is the mutable alert machine state of one pair. Primed flips on
// the first RSI point, which establishes the baseline zone without emitting.
type AlertState struct {
	Zone           Zone
	LastTransition time.Time
	Primed         bool
}
