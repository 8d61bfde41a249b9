package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"RSIPulse/internal/domain/models"
	"RSIPulse/internal/engine/tracker"
)

// fakeStream fails its first read session and delivers an observation on the
// second, so tests can observe the collector re-establishing channels.
type fakeStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
}

func (s *fakeStream) Connect(ctx context.Context) error   { return nil }
func (s *fakeStream) Subscribe(ctx context.Context) error { return nil }

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	s.mu.Lock()
	s.reads++
	n := s.reads
	s.mu.Unlock()

	obCh := make(chan *models.Observation, 1)
	errCh := make(chan error, 1)
	if n == 1 {
		errCh <- fmt.Errorf("connection reset")
		close(errCh)
		close(obCh)
		return obCh, errCh
	}
	obCh <- procObs(1, 100)
	return obCh, errCh
}

func (s *fakeStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Close() error      { return nil }
func (s *fakeStream) IsConnected() bool { return true }

func (s *fakeStream) counts() (reads, reconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.reconnects
}

func TestCollectorResumesAfterStreamFailure(t *testing.T) {
	trk := tracker.NewTracker(tracker.WithPeriod(2))
	pair := models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}
	if err := trk.Register(pair, 2, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	m := newFakeMetrics()
	proc := NewObservationProcessor(trk, nil, nil, nil, nil, m, testLogger(t))
	stream := &fakeStream{}
	col := NewObservationCollector(stream, proc, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := col.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// The first read session dies immediately; the observation only arrives
	// once the collector reconnects and reads fresh channels.
	deadline := time.Now().Add(2 * time.Second)
	for m.observationCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("observation never processed after stream failure")
		}
		time.Sleep(5 * time.Millisecond)
	}

	reads, reconnects := stream.counts()
	if reconnects == 0 {
		t.Fatalf("expected a reconnect after the failed session")
	}
	if reads < 2 {
		t.Fatalf("expected fresh channels after reconnect, got %d read sessions", reads)
	}
}
