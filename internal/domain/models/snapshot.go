package models

import "time"

// PairSnapshot serializes the calculator and alert state of one pair so the
// tracker can be reconstructed without replaying history. Point buffers and
// divergence bookkeeping are not snapshotted; they refill within one lookback
// window and divergences are only meaningful over live data.
type PairSnapshot struct {
	Symbol         string    `json:"symbol"`
	Timeframe      Timeframe `json:"timeframe"`
	Period         int       `json:"period"`
	AvgGain        float64   `json:"avg_gain"`
	AvgLoss        float64   `json:"avg_loss"`
	WarmupCount    int       `json:"warmup_count"`
	LastClose      *float64  `json:"last_close,omitempty"`
	LastTimestamp  time.Time `json:"last_timestamp"`
	Rule           AlertRule `json:"rule"`
	Zone           Zone      `json:"zone"`
	LastTransition time.Time `json:"last_transition"`
	Primed         bool      `json:"primed"`
	SavedAt        time.Time `json:"saved_at"`
}
