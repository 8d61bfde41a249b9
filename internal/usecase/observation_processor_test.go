package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"RSIPulse/internal/domain/models"
	"RSIPulse/internal/engine/tracker"
	"RSIPulse/pkg/logger"
)

type fakeStorage struct {
	points      []models.RSIPoint
	alerts      []*models.AlertEvent
	divergences []*models.DivergenceSignal
	failPoints  bool
	queried     bool
}

func (f *fakeStorage) Init(ctx context.Context) error { return nil }

func (f *fakeStorage) StorePoint(ctx context.Context, pair models.Pair, p models.RSIPoint) error {
	if f.failPoints {
		return fmt.Errorf("storage down")
	}
	f.points = append(f.points, p)
	return nil
}

func (f *fakeStorage) StoreAlert(ctx context.Context, e *models.AlertEvent) error {
	f.alerts = append(f.alerts, e)
	return nil
}

func (f *fakeStorage) StoreDivergence(ctx context.Context, s *models.DivergenceSignal) error {
	f.divergences = append(f.divergences, s)
	return nil
}

func (f *fakeStorage) QueryPoints(ctx context.Context, pair models.Pair, from, to time.Time, limit int) ([]models.RSIPoint, error) {
	f.queried = true
	return f.points, nil
}

func (f *fakeStorage) Health(ctx context.Context) error { return nil }
func (f *fakeStorage) Close() error                     { return nil }

type fakeSink struct {
	alerts      []*models.AlertEvent
	divergences []*models.DivergenceSignal
}

func (f *fakeSink) PublishAlert(ctx context.Context, e *models.AlertEvent) error {
	f.alerts = append(f.alerts, e)
	return nil
}

func (f *fakeSink) PublishDivergence(ctx context.Context, s *models.DivergenceSignal) error {
	f.divergences = append(f.divergences, s)
	return nil
}

func (f *fakeSink) Close() error { return nil }

type fakeNotifier struct {
	alerts      int
	divergences int
}

func (f *fakeNotifier) NotifyAlert(ctx context.Context, e *models.AlertEvent) error {
	f.alerts++
	return nil
}

func (f *fakeNotifier) NotifyDivergence(ctx context.Context, s *models.DivergenceSignal) error {
	f.divergences++
	return nil
}

type fakeSnapshots struct {
	saved []models.PairSnapshot
}

func (f *fakeSnapshots) Save(ctx context.Context, snap *models.PairSnapshot) error {
	f.saved = append(f.saved, *snap)
	return nil
}

func (f *fakeSnapshots) LoadAll(ctx context.Context) ([]models.PairSnapshot, error) {
	return f.saved, nil
}

func (f *fakeSnapshots) Delete(ctx context.Context, pair models.Pair) error { return nil }
func (f *fakeSnapshots) Close() error                                       { return nil }

type fakeMetrics struct {
	mu           sync.Mutex
	observations int
	errors       map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: make(map[string]int)} }

func (f *fakeMetrics) RecordObservation(symbol, timeframe string) {
	f.mu.Lock()
	f.observations++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordRSI(symbol, timeframe string, v float64) {}
func (f *fakeMetrics) RecordAlert(symbol, zone string)               {}
func (f *fakeMetrics) RecordDivergence(symbol, kind string)          {}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	f.errors[kind]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordLatency(op string, seconds float64) {}

func (f *fakeMetrics) observationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.observations
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testProcessor(t *testing.T) (*ObservationProcessor, *tracker.Tracker, *fakeStorage, *fakeSink, *fakeNotifier, *fakeSnapshots, *fakeMetrics) {
	t.Helper()
	trk := tracker.NewTracker(tracker.WithPeriod(2))
	storage := &fakeStorage{}
	sink := &fakeSink{}
	notifier := &fakeNotifier{}
	snapshots := &fakeSnapshots{}
	m := newFakeMetrics()
	p := NewObservationProcessor(trk, storage, sink, notifier, snapshots, m, testLogger(t))
	return p, trk, storage, sink, notifier, snapshots, m
}

func procObs(ts int, close float64) *models.Observation {
	return &models.Observation{
		Symbol:    "BTC-USD",
		Timeframe: models.TF1h,
		Timestamp: time.Unix(int64(ts)*3600, 0),
		Close:     close,
	}
}

func TestProcessDropsUntrackedPair(t *testing.T) {
	p, _, storage, _, _, _, m := testProcessor(t)

	if err := p.Process(context.Background(), procObs(0, 100)); err != nil {
		t.Fatalf("expected nil error for untracked pair, got %v", err)
	}
	if m.errors["untracked_pair"] != 1 {
		t.Fatalf("expected untracked_pair error recorded, got %v", m.errors)
	}
	if len(storage.points) != 0 {
		t.Fatalf("expected no points stored")
	}
}

func TestProcessDropsOutOfOrder(t *testing.T) {
	p, trk, _, _, _, _, m := testProcessor(t)
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	if err := trk.Register(pair, 0, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	if err := p.Process(ctx, procObs(5, 100)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Process(ctx, procObs(3, 100)); err != nil {
		t.Fatalf("expected out-of-order to be dropped, got %v", err)
	}
	if m.errors["out_of_order"] != 1 {
		t.Fatalf("expected out_of_order error recorded, got %v", m.errors)
	}
}

func TestProcessDispatchesPointsAlertsAndSnapshots(t *testing.T) {
	p, trk, storage, sink, notifier, snapshots, _ := testProcessor(t)
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	rule := &models.AlertRule{Overbought: 70, Oversold: 30, Hysteresis: 2}
	if err := trk.Register(pair, 2, rule); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	// Rising closes warm the calculator up and prime the overbought zone
	// silently, then the crash forces a transition.
	for i, c := range []float64{100, 101, 102, 60} {
		if err := p.Process(ctx, procObs(i, c)); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}

	if len(storage.points) != 2 {
		t.Fatalf("expected 2 stored points, got %d", len(storage.points))
	}
	if len(storage.alerts) != 1 || len(sink.alerts) != 1 || notifier.alerts != 1 {
		t.Fatalf("expected alert in storage, sink and notifier: %d %d %d",
			len(storage.alerts), len(sink.alerts), notifier.alerts)
	}
	ev := storage.alerts[0]
	if ev.From != models.ZoneOverbought || ev.To != models.ZoneOversold {
		t.Fatalf("unexpected transition %s -> %s", ev.From, ev.To)
	}
	if len(snapshots.saved) != 1 {
		t.Fatalf("expected snapshot persisted after transition, got %d", len(snapshots.saved))
	}
	if snapshots.saved[0].Symbol != "BTC-USD" {
		t.Fatalf("unexpected snapshot %+v", snapshots.saved[0])
	}
}

func TestProcessSurvivesStorageFailure(t *testing.T) {
	p, trk, storage, _, _, _, m := testProcessor(t)
	storage.failPoints = true
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	if err := trk.Register(pair, 2, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	for i, c := range []float64{100, 101, 102} {
		if err := p.Process(ctx, procObs(i, c)); err != nil {
			t.Fatalf("process %d must not fail on storage errors: %v", i, err)
		}
	}
	if m.errors["store_point"] == 0 {
		t.Fatalf("expected store_point errors recorded")
	}
}
