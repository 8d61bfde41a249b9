package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RSIPulse/internal/domain/models"
	"RSIPulse/internal/engine/tracker"
)

func pointsFixture(t *testing.T) (*tracker.Tracker, *fakeStorage) {
	t.Helper()
	trk := tracker.NewTracker(tracker.WithPeriod(2))
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	if err := trk.Register(pair, 2, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Period 2 needs two warmup observations, so the buffer holds a single
	// point at bar 2.
	for i, c := range []float64{100, 101, 102} {
		if _, err := trk.Ingest(procObs(i, c)); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}
	return trk, &fakeStorage{points: []models.RSIPoint{{Timestamp: time.Unix(3600, 0), Value: 48}}}
}

func TestGetPointsUntrackedPairFails(t *testing.T) {
	storage := &fakeStorage{points: []models.RSIPoint{{Timestamp: time.Unix(3600, 0), Value: 55}}}
	uc := NewPointsUseCase(tracker.NewTracker(tracker.WithPeriod(2)), storage)

	_, err := uc.GetPoints(context.Background(), GetPointsParams{Symbol: "BTC-USD", Timeframe: models.TF1h})
	if !errors.Is(err, tracker.ErrUnknownPair) {
		t.Fatalf("stored history must not leak for untracked pairs, got %v", err)
	}
	if storage.queried {
		t.Fatalf("storage must not be queried for untracked pairs")
	}
}

func TestGetPointsServesBufferWhenCovered(t *testing.T) {
	trk, storage := pointsFixture(t)
	uc := NewPointsUseCase(trk, storage)

	res, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol:    "BTC-USD",
		Timeframe: models.TF1h,
		From:      time.Unix(2*3600, 0),
		To:        time.Unix(10*3600, 0),
	})
	if err != nil {
		t.Fatalf("get points: %v", err)
	}
	if storage.queried {
		t.Fatalf("buffered range must not hit storage")
	}
	if res.Count != 1 || res.Points[0].Timestamp != time.Unix(2*3600, 0) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGetPointsFallsBackToStorage(t *testing.T) {
	trk, storage := pointsFixture(t)
	uc := NewPointsUseCase(trk, storage)

	// From precedes the oldest buffered point, so the buffer does not cover
	// the range and storage serves it.
	res, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol:    "BTC-USD",
		Timeframe: models.TF1h,
		From:      time.Unix(0, 0),
		To:        time.Unix(10*3600, 0),
	})
	if err != nil {
		t.Fatalf("get points: %v", err)
	}
	if !storage.queried {
		t.Fatalf("expected storage fallback for range past the buffer")
	}
	if res.Count != 1 || res.Points[0].Value != 48 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGetPointsRejectsInvertedRange(t *testing.T) {
	trk, storage := pointsFixture(t)
	uc := NewPointsUseCase(trk, storage)

	_, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol:    "BTC-USD",
		Timeframe: models.TF1h,
		From:      time.Unix(10*3600, 0),
		To:        time.Unix(3600, 0),
	})
	if err == nil {
		t.Fatalf("expected error for from > to")
	}
}
