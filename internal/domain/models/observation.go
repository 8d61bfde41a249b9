package models

import "time"

// Observation is a single closing price for one (symbol, timeframe) series.
// Observations for a series must arrive in non-decreasing timestamp order.
type Observation struct {
	Symbol    string
	Timeframe Timeframe
	Timestamp time.Time
	Close     float64
}

// Pair keys the per-series state held by the tracker.
type Pair struct {
	Symbol    string
	Timeframe Timeframe
}

func (p Pair) String() string { return p.Symbol + "/" + string(p.Timeframe) }

// SeriesPoint is one (timestamp, value) sample of a price or RSI series.
type SeriesPoint struct {
	Timestamp time.Time
	Value     float64
}

// RSIPoint is a computed RSI value; Value is always within [0,100].
type RSIPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
