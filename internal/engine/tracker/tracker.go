package tracker

import (
	"errors"
	"sync"

	"RSIPulse/internal/domain/models"
	"RSIPulse/internal/engine/alerting"
	"RSIPulse/internal/engine/divergence"
	"RSIPulse/internal/engine/rsi"
)

// ErrUnknownPair is returned for operations on a pair that was never
// registered or has been removed.
var ErrUnknownPair = errors.New("tracker: unknown pair")

const (
	defaultLookback = 100
	defaultPeriod   = 14
	defaultSwing    = 2
	defaultMaxLag   = 3
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithLookback sets how many points each pair retains for divergence scans.
func WithLookback(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.lookback = n
		}
	}
}

// WithPeriod sets the RSI period used when Register is called without one.
func WithPeriod(n int) Option {
	return func(t *Tracker) {
		if n > 1 {
			t.period = n
		}
	}
}

// WithSwingWindow sets the extremum swing window for divergence detection.
func WithSwingWindow(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.swing = n
		}
	}
}

// WithMaxLag sets the maximum price/RSI extremum pairing distance in bars.
func WithMaxLag(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxLag = n
		}
	}
}

// WithDefaultRule sets the alert rule applied when Register is called
// without one.
func WithDefaultRule(rule models.AlertRule) Option {
	return func(t *Tracker) { t.rule = rule }
}

type pairState struct {
	calc   *rsi.Calculator
	det    *divergence.Detector
	prices *ring
	points *ring
	rule   models.AlertRule
	alert  models.AlertState
}

// Tracker is the registry of tracked (symbol, timeframe) pairs. Each pair
// owns an independent RSI calculator, divergence detector, alert state and
// bounded buffers. All methods are safe for concurrent use; ingestion for
// different pairs never blocks on shared per-pair state.
type Tracker struct {
	mu       sync.RWMutex
	pairs    map[models.Pair]*pairState
	lookback int
	period   int
	swing    int
	maxLag   int
	rule     models.AlertRule
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		pairs:    make(map[models.Pair]*pairState),
		lookback: defaultLookback,
		period:   defaultPeriod,
		swing:    defaultSwing,
		maxLag:   defaultMaxLag,
		rule:     models.AlertRule{Overbought: 70, Oversold: 30, Hysteresis: 2},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register starts tracking a pair. A zero period falls back to the tracker
// default, a nil rule to the default rule. Registering an existing pair
// resets it to a cold start.
func (t *Tracker) Register(pair models.Pair, period int, rule *models.AlertRule) error {
	if period <= 0 {
		period = t.period
	}
	calc, err := rsi.New(period)
	if err != nil {
		return err
	}

	r := t.rule
	if rule != nil {
		r = *rule
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pairs[pair] = &pairState{
		calc:   calc,
		det:    divergence.NewDetector(t.swing, t.maxLag),
		prices: newRing(t.lookback),
		points: newRing(t.lookback),
		rule:   r,
		alert:  models.AlertState{Zone: models.ZoneNeutral},
	}
	return nil
}

// Remove stops tracking a pair and discards all of its state.
func (t *Tracker) Remove(pair models.Pair) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pairs[pair]; !ok {
		return ErrUnknownPair
	}
	delete(t.pairs, pair)
	return nil
}

// SetRule replaces the alert rule of a pair. The new thresholds apply from
// the next ingested observation.
func (t *Tracker) SetRule(pair models.Pair, rule models.AlertRule) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.pairs[pair]
	if !ok {
		return ErrUnknownPair
	}
	st.rule = rule
	return nil
}

// Pairs returns the currently tracked pairs in unspecified order.
func (t *Tracker) Pairs() []models.Pair {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Pair, 0, len(t.pairs))
	for p := range t.pairs {
		out = append(out, p)
	}
	return out
}

// Ingest feeds one observation through the pair's pipeline: RSI update,
// alert transition, divergence scan. During warmup the result carries no
// point and no signals. Out-of-order observations are rejected with the
// pair state untouched.
func (t *Tracker) Ingest(o *models.Observation) (*models.IngestResult, error) {
	pair := models.Pair{Symbol: o.Symbol, Timeframe: o.Timeframe}

	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.pairs[pair]
	if !ok {
		return nil, ErrUnknownPair
	}

	point, err := st.calc.Update(o)
	if err != nil {
		return nil, err
	}
	res := &models.IngestResult{Pair: pair}
	if point == nil {
		return res, nil
	}
	res.Point = point

	// Price and RSI buffers advance in lockstep so divergence pairing can
	// match extrema by bar index.
	st.prices.Push(models.SeriesPoint{Timestamp: o.Timestamp, Value: o.Close})
	st.points.Push(models.SeriesPoint{Timestamp: point.Timestamp, Value: point.Value})

	res.Alert = alerting.Transition(st.rule, &st.alert, pair, point)

	res.Divergences = st.det.Detect(pair, st.prices.Points(), st.points.Points(), point.Timestamp)
	if oldest, ok := st.prices.Oldest(); ok {
		st.det.Evict(oldest.Timestamp)
	}
	return res, nil
}

// CurrentRSI returns the most recent RSI point of a pair, or nil while the
// pair is still warming up.
func (t *Tracker) CurrentRSI(pair models.Pair) (*models.RSIPoint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.pairs[pair]
	if !ok {
		return nil, ErrUnknownPair
	}
	pts := st.points.Points()
	if len(pts) == 0 {
		return nil, nil
	}
	last := pts[len(pts)-1]
	return &models.RSIPoint{Timestamp: last.Timestamp, Value: last.Value}, nil
}

// Points returns the retained RSI series of a pair, oldest first.
func (t *Tracker) Points(pair models.Pair) ([]models.SeriesPoint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.pairs[pair]
	if !ok {
		return nil, ErrUnknownPair
	}
	return st.points.Points(), nil
}

// Agreement scores cross-timeframe conviction for a symbol: the fraction of
// its registered timeframes whose alert zone matches the majority zone. A
// single registered timeframe scores zero.
func (t *Tracker) Agreement(symbol string) (*models.AgreementScore, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byTF := make(map[models.Timeframe]models.Zone)
	counts := make(map[models.Zone]int)
	for pair, st := range t.pairs {
		if pair.Symbol != symbol {
			continue
		}
		byTF[pair.Timeframe] = st.alert.Zone
		counts[st.alert.Zone]++
	}
	if len(byTF) == 0 {
		return nil, ErrUnknownPair
	}

	majority := models.ZoneNeutral
	best := -1
	for _, zone := range []models.Zone{models.ZoneNeutral, models.ZoneOverbought, models.ZoneOversold} {
		if counts[zone] > best {
			majority = zone
			best = counts[zone]
		}
	}

	score := &models.AgreementScore{
		Symbol:       symbol,
		MajorityZone: majority,
		Timeframes:   len(byTF),
		ByTimeframe:  byTF,
	}
	if len(byTF) > 1 {
		score.Agreement = float64(best) / float64(len(byTF))
	}
	return score, nil
}

// Summary reports the zone distribution and per-pair state of the whole
// watchlist.
func (t *Tracker) Summary() models.TrackerSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sum := models.TrackerSummary{Pairs: make([]models.PairSummary, 0, len(t.pairs))}
	for pair, st := range t.pairs {
		ps := models.PairSummary{
			Symbol:    pair.Symbol,
			Timeframe: pair.Timeframe,
			Zone:      st.alert.Zone,
			Warm:      st.calc.Warm(),
		}
		if pts := st.points.Points(); len(pts) > 0 {
			v := pts[len(pts)-1].Value
			ps.RSI = &v
		}
		sum.Pairs = append(sum.Pairs, ps)
		sum.TotalPairs++
		switch st.alert.Zone {
		case models.ZoneOverbought:
			sum.Overbought++
		case models.ZoneOversold:
			sum.Oversold++
		default:
			sum.Neutral++
		}
	}
	return sum
}

// Snapshot exports the restorable state of every tracked pair. Series
// buffers are not included, a restored pair resumes its averages but scans
// for divergence only on points ingested after the restart.
func (t *Tracker) Snapshot() []models.PairSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.PairSnapshot, 0, len(t.pairs))
	for pair, st := range t.pairs {
		snap := models.PairSnapshot{
			Symbol:         pair.Symbol,
			Timeframe:      pair.Timeframe,
			Rule:           st.rule,
			Zone:           st.alert.Zone,
			LastTransition: st.alert.LastTransition,
			Primed:         st.alert.Primed,
		}
		st.calc.Snapshot(&snap)
		out = append(out, snap)
	}
	return out
}

// SnapshotPair exports the restorable state of a single pair.
func (t *Tracker) SnapshotPair(pair models.Pair) (*models.PairSnapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.pairs[pair]
	if !ok {
		return nil, ErrUnknownPair
	}
	snap := &models.PairSnapshot{
		Symbol:         pair.Symbol,
		Timeframe:      pair.Timeframe,
		Rule:           st.rule,
		Zone:           st.alert.Zone,
		LastTransition: st.alert.LastTransition,
		Primed:         st.alert.Primed,
	}
	st.calc.Snapshot(snap)
	return snap, nil
}

// RestorePair re-registers a pair from a snapshot so it resumes where the
// previous process left off.
func (t *Tracker) RestorePair(snap *models.PairSnapshot) error {
	calc, err := rsi.FromSnapshot(snap)
	if err != nil {
		return err
	}

	zone := snap.Zone
	if zone == "" {
		zone = models.ZoneNeutral
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pairs[models.Pair{Symbol: snap.Symbol, Timeframe: snap.Timeframe}] = &pairState{
		calc:   calc,
		det:    divergence.NewDetector(t.swing, t.maxLag),
		prices: newRing(t.lookback),
		points: newRing(t.lookback),
		rule:   snap.Rule,
		alert: models.AlertState{
			Zone:           zone,
			LastTransition: snap.LastTransition,
			Primed:         snap.Primed,
		},
	}
	return nil
}
