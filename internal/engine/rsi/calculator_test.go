package rsi

import (
	"math"
	"testing"
	"time"

	"RSIPulse/internal/domain/models"
)

func obs(ts int, close float64) *models.Observation {
	return &models.Observation{
		Symbol:    "BTC-USD",
		Timeframe: models.TF1h,
		Timestamp: time.Unix(int64(ts)*3600, 0),
		Close:     close,
	}
}

func feed(t *testing.T, c *Calculator, closes []float64) []models.RSIPoint {
	t.Helper()
	var points []models.RSIPoint
	for i, cl := range closes {
		p, err := c.Update(obs(i, cl))
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		if p != nil {
			points = append(points, *p)
		}
	}
	return points
}

func TestNewRejectsInvalidPeriod(t *testing.T) {
	for _, p := range []int{-1, 0, 1} {
		if _, err := New(p); err != ErrInvalidPeriod {
			t.Fatalf("period %d: expected ErrInvalidPeriod, got %v", p, err)
		}
	}
	if _, err := New(2); err != nil {
		t.Fatalf("period 2 should be valid: %v", err)
	}
}

func TestWarmupEmitsNothing(t *testing.T) {
	c, _ := New(14)
	points := feed(t, c, []float64{100, 101, 102, 103, 104})
	if len(points) != 0 {
		t.Fatalf("expected no points during warmup, got %d", len(points))
	}
	if c.Warm() {
		t.Fatalf("calculator should not be warm yet")
	}
}

func TestFirstPointAfterPeriodDeltas(t *testing.T) {
	c, _ := New(3)
	// 4 closes = seed + 3 deltas, exactly enough for the first value.
	points := feed(t, c, []float64{100, 101, 102, 103})
	if len(points) != 1 {
		t.Fatalf("expected exactly one point, got %d", len(points))
	}
	if points[0].Value != 100 {
		t.Fatalf("all-gain warmup should give RSI 100, got %v", points[0].Value)
	}
}

func TestBoundsForRandomishWalk(t *testing.T) {
	closes := []float64{100}
	for i := 1; i < 200; i++ {
		// deterministic zig-zag with drift
		step := 0.7
		if i%3 == 0 {
			step = -1.1
		}
		closes = append(closes, closes[i-1]+step)
	}
	c, _ := New(14)
	for _, p := range feed(t, c, closes) {
		if p.Value < 0 || p.Value > 100 {
			t.Fatalf("RSI out of bounds: %v", p.Value)
		}
	}
}

func TestStrictlyIncreasingDrivesTo100(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	c, _ := New(14)
	points := feed(t, c, closes)
	if len(points) == 0 {
		t.Fatalf("expected points")
	}
	last := points[len(points)-1].Value
	if math.Abs(last-100) > 1e-9 {
		t.Fatalf("expected RSI 100 for strictly increasing series, got %v", last)
	}
}

func TestFlatSeriesYields50(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 250.5
	}
	c, _ := New(14)
	points := feed(t, c, closes)
	if len(points) == 0 {
		t.Fatalf("expected points after warmup")
	}
	for _, p := range points {
		if p.Value != 50 {
			t.Fatalf("flat series must give RSI 50 exactly, got %v", p.Value)
		}
	}
}

func TestDeterminism(t *testing.T) {
	closes := []float64{100, 102, 101, 104, 103, 106, 105, 109, 108, 110, 107, 111, 113, 112, 115, 114, 117}
	c1, _ := New(5)
	c2, _ := New(5)
	p1 := feed(t, c1, closes)
	p2 := feed(t, c2, closes)
	if len(p1) != len(p2) {
		t.Fatalf("length mismatch: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("point %d differs: %v vs %v", i, p1[i], p2[i])
		}
	}
}

func TestOutOfOrderRejectedWithoutMutation(t *testing.T) {
	c, _ := New(3)
	feed(t, c, []float64{100, 101, 99, 102, 104})
	before := *c

	_, err := c.Update(obs(1, 50)) // far in the past
	if err != ErrOutOfOrderObservation {
		t.Fatalf("expected ErrOutOfOrderObservation, got %v", err)
	}
	if *c != before {
		t.Fatalf("state mutated on rejected observation: %+v vs %+v", *c, before)
	}

	// equal timestamp is accepted (non-decreasing order)
	if _, err := c.Update(obs(4, 105)); err != nil {
		t.Fatalf("equal-or-later timestamp must be accepted: %v", err)
	}
}

func TestSnapshotRestoreResumes(t *testing.T) {
	closes := []float64{100, 102, 101, 104, 103, 106, 105, 109, 108, 110}
	tail := []float64{107, 111, 113, 112}

	full, _ := New(5)
	var want []models.RSIPoint
	for i, cl := range append(append([]float64{}, closes...), tail...) {
		if p, err := full.Update(obs(i, cl)); err != nil {
			t.Fatalf("full update: %v", err)
		} else if p != nil {
			want = append(want, *p)
		}
	}

	head, _ := New(5)
	for i, cl := range closes {
		if _, err := head.Update(obs(i, cl)); err != nil {
			t.Fatalf("head update: %v", err)
		}
	}
	var snap models.PairSnapshot
	head.Snapshot(&snap)

	restored, err := FromSnapshot(&snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	var got []models.RSIPoint
	for i, cl := range tail {
		if p, err := restored.Update(obs(len(closes)+i, cl)); err != nil {
			t.Fatalf("restored update: %v", err)
		} else if p != nil {
			got = append(got, *p)
		}
	}

	want = want[len(want)-len(got):]
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("resumed point %d differs: %v vs %v", i, got[i], want[i])
		}
	}
}
