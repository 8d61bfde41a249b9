package divergence

import (
	"testing"
	"time"

	"RSIPulse/internal/domain/models"
)

var testPair = models.Pair{Symbol: "ETH-USD", Timeframe: models.TF1h}

func series(values ...float64) []models.SeriesPoint {
	out := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = models.SeriesPoint{Timestamp: time.Unix(int64(i)*3600, 0), Value: v}
	}
	return out
}

func TestFindExtremaStrict(t *testing.T) {
	pts := series(9, 10, 9, 9.5, 10.5, 9.5)
	ext := FindExtrema(pts, 1)
	if len(ext) != 3 {
		t.Fatalf("expected 3 extrema, got %d: %+v", len(ext), ext)
	}
	if ext[0].Kind != models.Peak || ext[0].Value != 10 {
		t.Fatalf("expected first peak at 10, got %+v", ext[0])
	}
	if ext[1].Kind != models.Trough || ext[1].Value != 9 {
		t.Fatalf("expected trough at 9, got %+v", ext[1])
	}
	if ext[2].Kind != models.Peak || ext[2].Value != 10.5 {
		t.Fatalf("expected second peak at 10.5, got %+v", ext[2])
	}
}

func TestFindExtremaIgnoresPlateaus(t *testing.T) {
	pts := series(1, 2, 2, 2, 1)
	if ext := FindExtrema(pts, 1); len(ext) != 0 {
		t.Fatalf("plateau must not register as extremum, got %+v", ext)
	}
}

func TestFindExtremaExcludesEdges(t *testing.T) {
	pts := series(10, 5, 6, 7, 20)
	ext := FindExtrema(pts, 1)
	if len(ext) != 1 || ext[0].Kind != models.Trough || ext[0].Value != 5 {
		t.Fatalf("edges must not qualify, got %+v", ext)
	}
}

func TestBearishRegular(t *testing.T) {
	prices := series(9, 10, 9, 9.5, 10.5, 9.5)  // peaks 10 then 10.5 (higher)
	rsis := series(60, 75, 60, 65, 70, 60)      // peaks 75 then 70 (lower)
	d := NewDetector(1, 3)
	sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0))
	if len(sigs) != 1 {
		t.Fatalf("expected one signal, got %d", len(sigs))
	}
	s := sigs[0]
	if s.Kind != models.BearishRegular {
		t.Fatalf("expected bearish_regular, got %s", s.Kind)
	}
	if s.PricePair[0].Value != 10 || s.PricePair[1].Value != 10.5 {
		t.Fatalf("unexpected price pair: %+v", s.PricePair)
	}
	if s.RSIPair[0].Value != 75 || s.RSIPair[1].Value != 70 {
		t.Fatalf("unexpected rsi pair: %+v", s.RSIPair)
	}
}

func TestNoSignalWhenRSIConfirms(t *testing.T) {
	prices := series(9, 10, 9, 9.5, 10.5, 9.5) // higher peaks
	rsis := series(60, 70, 60, 65, 75, 60)     // higher peaks too
	d := NewDetector(1, 3)
	if sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0)); len(sigs) != 0 {
		t.Fatalf("confirming RSI must not produce divergence, got %+v", sigs)
	}
}

func TestEqualValuesAreNotDivergence(t *testing.T) {
	prices := series(9, 10, 9, 9.5, 10, 9.5) // equal peaks
	rsis := series(60, 75, 60, 65, 70, 60)
	d := NewDetector(1, 3)
	if sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0)); len(sigs) != 0 {
		t.Fatalf("equal price peaks must not classify, got %+v", sigs)
	}
}

func TestBearishHidden(t *testing.T) {
	prices := series(9, 10.5, 9, 9.5, 10, 9.5) // peaks 10.5 then 10 (lower)
	rsis := series(60, 70, 60, 65, 75, 60)     // peaks 70 then 75 (higher)
	d := NewDetector(1, 3)
	sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0))
	if len(sigs) != 1 || sigs[0].Kind != models.BearishHidden {
		t.Fatalf("expected bearish_hidden, got %+v", sigs)
	}
}

func TestBullishRegular(t *testing.T) {
	prices := series(11, 10, 11, 10.5, 9.5, 10.5) // troughs 10 then 9.5 (lower)
	rsis := series(40, 30, 40, 36, 33, 40)        // troughs 30 then 33 (higher)
	d := NewDetector(1, 3)
	sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0))
	if len(sigs) != 1 || sigs[0].Kind != models.BullishRegular {
		t.Fatalf("expected bullish_regular, got %+v", sigs)
	}
}

func TestBullishHidden(t *testing.T) {
	prices := series(11, 9.5, 11, 10.5, 10, 10.5) // troughs 9.5 then 10 (higher)
	rsis := series(40, 33, 40, 36, 30, 40)        // troughs 33 then 30 (lower)
	d := NewDetector(1, 3)
	sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0))
	if len(sigs) != 1 || sigs[0].Kind != models.BullishHidden {
		t.Fatalf("expected bullish_hidden, got %+v", sigs)
	}
}

func TestUnpairedLatestPeakFallsBackToPairedPeaks(t *testing.T) {
	// Price peaks at bars 1, 5 and 12; RSI peaks only at 1 and 5, so the
	// bar-12 peak has no counterpart within the lag window and must be
	// skipped, not abort the scan.
	prices := series(9, 10, 9, 9.2, 9.4, 11, 9, 9.4, 9.8, 10.2, 10.6, 11.0, 11.5, 9)
	rsis := series(60, 75, 60, 61, 63, 70, 50, 52, 54, 56, 58, 60, 62, 64)
	d := NewDetector(1, 3)
	sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0))
	if len(sigs) != 1 {
		t.Fatalf("expected bearish_regular from the paired peaks, got %+v", sigs)
	}
	s := sigs[0]
	if s.Kind != models.BearishRegular {
		t.Fatalf("expected bearish_regular, got %s", s.Kind)
	}
	if s.PricePair[0].Value != 10 || s.PricePair[1].Value != 11 {
		t.Fatalf("unexpected price pair: %+v", s.PricePair)
	}
	if s.RSIPair[0].Value != 75 || s.RSIPair[1].Value != 70 {
		t.Fatalf("unexpected rsi pair: %+v", s.RSIPair)
	}
}

func TestSparseExtremaYieldEmpty(t *testing.T) {
	prices := series(9, 10, 9) // single peak only
	rsis := series(60, 75, 60)
	d := NewDetector(1, 3)
	if sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0)); len(sigs) != 0 {
		t.Fatalf("fewer than 2 extrema must yield empty, got %+v", sigs)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	prices := series(9, 10, 9, 9.5, 10.5, 9.5)
	rsis := series(60, 75, 60, 65, 70, 60)
	d := NewDetector(1, 3)
	first := d.Scan(testPair, prices, rsis, time.Unix(0, 0))
	second := d.Scan(testPair, prices, rsis, time.Unix(0, 0))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("scan must be restartable: %d vs %d", len(first), len(second))
	}
	if first[0].Kind != second[0].Kind {
		t.Fatalf("scan results differ")
	}
}

func TestDetectEmitsOncePerPair(t *testing.T) {
	prices := series(9, 10, 9, 9.5, 10.5, 9.5)
	rsis := series(60, 75, 60, 65, 70, 60)
	d := NewDetector(1, 3)
	if sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0)); len(sigs) != 1 {
		t.Fatalf("expected first detect to emit")
	}
	if sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0)); len(sigs) != 0 {
		t.Fatalf("same pair must not re-emit, got %+v", sigs)
	}
}

func TestEvictAllowsForgottenPairs(t *testing.T) {
	prices := series(9, 10, 9, 9.5, 10.5, 9.5)
	rsis := series(60, 75, 60, 65, 70, 60)
	d := NewDetector(1, 3)
	d.Detect(testPair, prices, rsis, time.Unix(0, 0))

	// Evicting everything newer than the window start forgets the pair.
	d.Evict(time.Unix(10*3600, 0))
	if sigs := d.Detect(testPair, prices, rsis, time.Unix(0, 0)); len(sigs) != 1 {
		t.Fatalf("evicted pair should be reportable again, got %d", len(sigs))
	}
}

func TestStrictlyIncreasingSeriesHasNoDivergence(t *testing.T) {
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = float64(i)
	}
	prices := series(vals...)
	d := NewDetector(2, 3)
	if sigs := d.Detect(testPair, prices, prices, time.Unix(0, 0)); len(sigs) != 0 {
		t.Fatalf("monotone series must not diverge against itself, got %+v", sigs)
	}
}
