package models

import "time"

// ExtremumKind distinguishes local peaks from local troughs.
type ExtremumKind string

const (
	Peak   ExtremumKind = "peak"
	Trough ExtremumKind = "trough"
)

// Extremum is a local peak or trough found in a bounded series window.
type Extremum struct {
	Index     int
	Timestamp time.Time
	Value     float64
	Kind      ExtremumKind
}

// DivergenceKind classifies a price/RSI divergence.
type DivergenceKind string

const (
	BullishRegular DivergenceKind = "bullish_regular"
	BearishRegular DivergenceKind = "bearish_regular"
	BullishHidden  DivergenceKind = "bullish_hidden"
	BearishHidden  DivergenceKind = "bearish_hidden"
)

// DivergenceSignal reports a detected divergence between the price series and
// the RSI series of one pair. Emitted at most once per extremum pair.
type DivergenceSignal struct {
	Symbol     string
	Timeframe  Timeframe
	Kind       DivergenceKind
	PricePair  [2]Extremum // older, newer
	RSIPair    [2]Extremum // older, newer
	DetectedAt time.Time
}

// Zone is the alert state of one pair.
type Zone string

const (
	ZoneNeutral    Zone = "neutral"
	ZoneOverbought Zone = "overbought"
	ZoneOversold   Zone = "oversold"
)

// AlertEvent is emitted exactly once per accepted zone transition.
type AlertEvent struct {
	Symbol    string
	Timeframe Timeframe
	From      Zone
	To        Zone
	RSI       float64
	Timestamp time.Time
}

// AgreementScore ranks cross-timeframe conviction for one instrument:
// the fraction of registered timeframes sharing the majority zone.
type AgreementScore struct {
	Symbol       string
	MajorityZone Zone
	Agreement    float64
	Timeframes   int
	ByTimeframe  map[Timeframe]Zone
}

// IngestResult carries everything one observation produced. The caller is
// responsible for dispatching events; the engine performs no I/O.
type IngestResult struct {
	Pair        Pair
	Point       *RSIPoint
	Divergences []DivergenceSignal
	Alert       *AlertEvent
}

// SymbolOverview is the fan-out dashboard view of one symbol: the latest RSI
// on every tracked timeframe plus the cross-timeframe agreement score.
// Partial failures land in Errors instead of failing the whole overview.
type SymbolOverview struct {
	Symbol    string                  `json:"symbol"`
	Timestamp time.Time               `json:"timestamp"`
	Latest    map[Timeframe]*RSIPoint `json:"latest"`
	Zones     map[Timeframe]Zone      `json:"zones"`
	Agreement *AgreementScore         `json:"agreement,omitempty"`
	Errors    map[string]string       `json:"errors,omitempty"`
}

// PairSummary is the dashboard view of one tracked pair.
type PairSummary struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	RSI       *float64  `json:"rsi,omitempty"`
	Zone      Zone      `json:"zone"`
	Warm      bool      `json:"warm"`
}

// TrackerSummary aggregates the state of the whole watchlist.
type TrackerSummary struct {
	TotalPairs int           `json:"total_pairs"`
	Overbought int           `json:"overbought"`
	Oversold   int           `json:"oversold"`
	Neutral    int           `json:"neutral"`
	Pairs      []PairSummary `json:"pairs"`
}
