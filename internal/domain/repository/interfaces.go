package repository

import (
	"context"
	"time"

	"RSIPulse/internal/domain/models"
)

// MarketStream supplies ordered, deduplicated observations per pair.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Observation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// EventSink publishes engine events to the event bus for downstream consumers.
type EventSink interface {
	PublishAlert(ctx context.Context, e *models.AlertEvent) error
	PublishDivergence(ctx context.Context, s *models.DivergenceSignal) error
	Close() error
}

// SignalStorage persists computed points and emitted signals for the dashboard.
type SignalStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StorePoint(ctx context.Context, pair models.Pair, p models.RSIPoint) error
	StoreAlert(ctx context.Context, e *models.AlertEvent) error
	StoreDivergence(ctx context.Context, s *models.DivergenceSignal) error
	QueryPoints(ctx context.Context, pair models.Pair, from, to time.Time, limit int) ([]models.RSIPoint, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Notifier delivers alert and divergence events to the outside world.
// Delivery, retry, and formatting are entirely its responsibility.
type Notifier interface {
	NotifyAlert(ctx context.Context, e *models.AlertEvent) error
	NotifyDivergence(ctx context.Context, s *models.DivergenceSignal) error
}

// SnapshotStore persists per-pair engine state for warm restart.
type SnapshotStore interface {
	Save(ctx context.Context, snap *models.PairSnapshot) error
	LoadAll(ctx context.Context) ([]models.PairSnapshot, error)
	Delete(ctx context.Context, pair models.Pair) error
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordObservation(symbol, timeframe string)
	RecordRSI(symbol, timeframe string, value float64)
	RecordAlert(symbol, zone string)
	RecordDivergence(symbol, kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
