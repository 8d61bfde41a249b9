package tracker

import (
	"testing"
	"time"

	"RSIPulse/internal/domain/models"
)

func obsAt(symbol string, tf models.Timeframe, ts int, close float64) *models.Observation {
	return &models.Observation{
		Symbol:    symbol,
		Timeframe: tf,
		Timestamp: time.Unix(int64(ts)*3600, 0),
		Close:     close,
	}
}

func ingestAll(t *testing.T, tr *Tracker, symbol string, tf models.Timeframe, closes []float64) []*models.IngestResult {
	t.Helper()
	var out []*models.IngestResult
	for i, c := range closes {
		res, err := tr.Ingest(obsAt(symbol, tf, i, c))
		if err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
		out = append(out, res)
	}
	return out
}

func TestRingEvictsOldestFirst(t *testing.T) {
	r := newRing(3)
	for i := 0; i < 5; i++ {
		r.Push(models.SeriesPoint{Timestamp: time.Unix(int64(i), 0), Value: float64(i)})
	}
	if r.Len() != 3 {
		t.Fatalf("expected len 3, got %d", r.Len())
	}
	pts := r.Points()
	if pts[0].Value != 2 || pts[2].Value != 4 {
		t.Fatalf("unexpected retained points: %+v", pts)
	}
	if oldest, ok := r.Oldest(); !ok || oldest.Value != 2 {
		t.Fatalf("unexpected oldest: %+v", oldest)
	}
}

func TestIngestUnknownPair(t *testing.T) {
	tr := NewTracker()
	if _, err := tr.Ingest(obsAt("BTC-USD", models.TF1h, 0, 100)); err != ErrUnknownPair {
		t.Fatalf("expected ErrUnknownPair, got %v", err)
	}
	if _, err := tr.CurrentRSI(models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}); err != ErrUnknownPair {
		t.Fatalf("expected ErrUnknownPair, got %v", err)
	}
}

func TestWarmupThenPoints(t *testing.T) {
	tr := NewTracker(WithPeriod(3))
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	if err := tr.Register(pair, 0, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	results := ingestAll(t, tr, "BTC-USD", models.TF1h, []float64{100, 101, 102, 103, 102})
	for i := 0; i < 3; i++ {
		if results[i].Point != nil {
			t.Fatalf("warmup ingest %d produced a point", i)
		}
	}
	if results[3].Point == nil || results[4].Point == nil {
		t.Fatalf("expected points once warm")
	}

	cur, err := tr.CurrentRSI(pair)
	if err != nil || cur == nil {
		t.Fatalf("current rsi: %v %v", cur, err)
	}
	if cur.Value != results[4].Point.Value {
		t.Fatalf("current rsi should be the latest point")
	}
	pts, err := tr.Points(pair)
	if err != nil || len(pts) != 2 {
		t.Fatalf("expected 2 retained points, got %d (%v)", len(pts), err)
	}
}

func TestLookbackBoundsBuffers(t *testing.T) {
	tr := NewTracker(WithPeriod(2), WithLookback(5))
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	tr.Register(pair, 0, nil)

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%4)
	}
	ingestAll(t, tr, "BTC-USD", models.TF1h, closes)

	pts, _ := tr.Points(pair)
	if len(pts) != 5 {
		t.Fatalf("expected lookback-bounded buffer of 5, got %d", len(pts))
	}
}

func TestRemoveAndReAddResetsWarmup(t *testing.T) {
	tr := NewTracker(WithPeriod(3))
	pair := models.Pair{Symbol: "ETH-USD", Timeframe: models.TF5m}
	tr.Register(pair, 0, nil)
	ingestAll(t, tr, "ETH-USD", models.TF5m, []float64{10, 11, 12, 13})

	if err := tr.Remove(pair); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := tr.Remove(pair); err != ErrUnknownPair {
		t.Fatalf("second remove should fail, got %v", err)
	}

	tr.Register(pair, 0, nil)
	res, err := tr.Ingest(obsAt("ETH-USD", models.TF5m, 100, 14))
	if err != nil {
		t.Fatalf("ingest after re-add: %v", err)
	}
	if res.Point != nil {
		t.Fatalf("re-added pair must start cold, got point %+v", res.Point)
	}
}

func TestAlertFlowsThroughIngest(t *testing.T) {
	rule := models.AlertRule{Overbought: 70, Oversold: 30, Hysteresis: 2}
	tr := NewTracker(WithPeriod(2))
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	tr.Register(pair, 0, &rule)

	// Strictly rising closes drive RSI to 100.
	results := ingestAll(t, tr, "BTC-USD", models.TF1h, []float64{100, 101, 102, 103})

	var ev *models.AlertEvent
	for _, r := range results {
		if r.Alert != nil {
			ev = r.Alert
		}
	}
	// The first point primes the baseline zone, so with RSI pinned at 100
	// from the start no transition ever fires.
	if ev != nil {
		t.Fatalf("baseline priming should absorb the initial zone, got %+v", ev)
	}

	// A crash out of overbought transitions to neutral and then oversold.
	res, err := tr.Ingest(obsAt("BTC-USD", models.TF1h, 10, 60))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Alert == nil || res.Alert.From != models.ZoneOverbought {
		t.Fatalf("expected exit from overbought, got %+v", res.Alert)
	}
}

func TestAgreementSingleTimeframeScoresZero(t *testing.T) {
	tr := NewTracker()
	tr.Register(models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}, 0, nil)

	score, err := tr.Agreement("BTC-USD")
	if err != nil {
		t.Fatalf("agreement: %v", err)
	}
	if score.Agreement != 0 || score.Timeframes != 1 {
		t.Fatalf("single timeframe must score zero, got %+v", score)
	}

	if _, err := tr.Agreement("DOGE-USD"); err != ErrUnknownPair {
		t.Fatalf("unknown symbol should fail, got %v", err)
	}
}

func TestAgreementMajorityFraction(t *testing.T) {
	tr := NewTracker(WithPeriod(2))
	for _, tf := range []models.Timeframe{models.TF5m, models.TF1h, models.TF4h} {
		tr.Register(models.Pair{Symbol: "BTC-USD", Timeframe: tf}, 0, nil)
	}
	// Drive two timeframes overbought, leave the third neutral-primed.
	for _, tf := range []models.Timeframe{models.TF5m, models.TF1h} {
		ingestAll(t, tr, "BTC-USD", tf, []float64{100, 101, 102, 103})
	}
	ingestAll(t, tr, "BTC-USD", models.TF4h, []float64{100, 101, 100})

	score, err := tr.Agreement("BTC-USD")
	if err != nil {
		t.Fatalf("agreement: %v", err)
	}
	if score.MajorityZone != models.ZoneOverbought {
		t.Fatalf("expected overbought majority, got %+v", score)
	}
	if want := 2.0 / 3.0; score.Agreement != want {
		t.Fatalf("expected agreement %v, got %v", want, score.Agreement)
	}
	if score.ByTimeframe[models.TF4h] != models.ZoneNeutral {
		t.Fatalf("unexpected zone map: %+v", score.ByTimeframe)
	}
}

func TestSummaryCountsZones(t *testing.T) {
	tr := NewTracker(WithPeriod(2))
	tr.Register(models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}, 0, nil)
	tr.Register(models.Pair{Symbol: "ETH-USD", Timeframe: models.TF1h}, 0, nil)
	ingestAll(t, tr, "BTC-USD", models.TF1h, []float64{100, 101, 102, 103})

	sum := tr.Summary()
	if sum.TotalPairs != 2 || sum.Overbought != 1 || sum.Neutral != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	for _, p := range sum.Pairs {
		if p.Symbol == "BTC-USD" && (p.RSI == nil || !p.Warm) {
			t.Fatalf("warm pair should report its RSI: %+v", p)
		}
		if p.Symbol == "ETH-USD" && (p.RSI != nil || p.Warm) {
			t.Fatalf("cold pair should report no RSI: %+v", p)
		}
	}
}

func TestSnapshotRestoreAcrossTrackers(t *testing.T) {
	closes := []float64{100, 102, 101, 104, 103, 106, 105, 109}
	tail := []float64{108, 110, 107, 111}
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}

	full := NewTracker(WithPeriod(5))
	full.Register(pair, 0, nil)
	var want []models.RSIPoint
	for i, c := range append(append([]float64{}, closes...), tail...) {
		res, err := full.Ingest(obsAt("BTC-USD", models.TF1h, i, c))
		if err != nil {
			t.Fatalf("full ingest: %v", err)
		}
		if res.Point != nil {
			want = append(want, *res.Point)
		}
	}

	head := NewTracker(WithPeriod(5))
	head.Register(pair, 0, nil)
	for i, c := range closes {
		if _, err := head.Ingest(obsAt("BTC-USD", models.TF1h, i, c)); err != nil {
			t.Fatalf("head ingest: %v", err)
		}
	}
	snaps := head.Snapshot()
	if len(snaps) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(snaps))
	}

	restored := NewTracker(WithPeriod(5))
	if err := restored.RestorePair(&snaps[0]); err != nil {
		t.Fatalf("restore: %v", err)
	}
	var got []models.RSIPoint
	for i, c := range tail {
		res, err := restored.Ingest(obsAt("BTC-USD", models.TF1h, len(closes)+i, c))
		if err != nil {
			t.Fatalf("restored ingest: %v", err)
		}
		if res.Point != nil {
			got = append(got, *res.Point)
		}
	}

	want = want[len(want)-len(got):]
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("resumed point %d differs: %v vs %v", i, got[i], want[i])
		}
	}
}

func TestSetRuleUnknownPair(t *testing.T) {
	tr := NewTracker()
	err := tr.SetRule(models.Pair{Symbol: "X", Timeframe: models.TF1m}, models.AlertRule{})
	if err != ErrUnknownPair {
		t.Fatalf("expected ErrUnknownPair, got %v", err)
	}
}
