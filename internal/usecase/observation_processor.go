package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RSIPulse/internal/domain/models"
	drepo "RSIPulse/internal/domain/repository"
	"RSIPulse/internal/engine/rsi"
	"RSIPulse/internal/engine/tracker"
	"RSIPulse/pkg/logger"
)

// ObservationProcessor feeds observations through the tracker and dispatches
// whatever each one produced: points to storage, alerts and divergences to
// the event bus, notifier and storage. Dispatch failures are recorded and
// logged but never stall ingestion.
type ObservationProcessor struct {
	tracker   *tracker.Tracker
	storage   drepo.SignalStorage
	sink      drepo.EventSink
	notifier  drepo.Notifier
	snapshots drepo.SnapshotStore
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewObservationProcessor creates a new ObservationProcessor instance.
// Storage, sink, notifier and snapshot store may each be nil when the
// corresponding backend is disabled.
func NewObservationProcessor(
	trk *tracker.Tracker,
	storage drepo.SignalStorage,
	sink drepo.EventSink,
	notifier drepo.Notifier,
	snapshots drepo.SnapshotStore,
	metrics drepo.Metrics,
	log *logger.Logger,
) *ObservationProcessor {
	return &ObservationProcessor{
		tracker:   trk,
		storage:   storage,
		sink:      sink,
		notifier:  notifier,
		snapshots: snapshots,
		metrics:   metrics,
		log:       log,
	}
}

// Process ingests a single observation and dispatches its results.
// Observations for untracked pairs and out-of-order observations are dropped,
// not errors: the stream is shared and the watchlist decides what matters.
func (p *ObservationProcessor) Process(ctx context.Context, o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("observation is nil")
	}

	start := time.Now()
	p.metrics.RecordObservation(o.Symbol, string(o.Timeframe))

	res, err := p.tracker.Ingest(o)
	if err != nil {
		switch {
		case errors.Is(err, tracker.ErrUnknownPair):
			p.metrics.RecordError("untracked_pair")
			return nil
		case errors.Is(err, rsi.ErrOutOfOrderObservation):
			p.metrics.RecordError("out_of_order")
			p.log.Warn("dropped out-of-order observation",
				logger.String("symbol", o.Symbol),
				logger.String("timeframe", string(o.Timeframe)))
			return nil
		default:
			p.metrics.RecordError("ingest")
			return fmt.Errorf("ingest observation: %w", err)
		}
	}

	p.dispatch(ctx, res)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

func (p *ObservationProcessor) dispatch(ctx context.Context, res *models.IngestResult) {
	if res.Point != nil {
		p.metrics.RecordRSI(res.Pair.Symbol, string(res.Pair.Timeframe), res.Point.Value)
		if p.storage != nil {
			if err := p.storage.StorePoint(ctx, res.Pair, *res.Point); err != nil {
				p.metrics.RecordError("store_point")
				p.log.Error("store point", logger.Error(err), logger.String("pair", res.Pair.String()))
			}
		}
	}

	if res.Alert != nil {
		p.dispatchAlert(ctx, res.Pair, res.Alert)
	}
	for i := range res.Divergences {
		p.dispatchDivergence(ctx, &res.Divergences[i])
	}
}

func (p *ObservationProcessor) dispatchAlert(ctx context.Context, pair models.Pair, ev *models.AlertEvent) {
	p.metrics.RecordAlert(ev.Symbol, string(ev.To))
	p.log.Info("zone transition",
		logger.String("pair", pair.String()),
		logger.String("from", string(ev.From)),
		logger.String("to", string(ev.To)),
		logger.Any("rsi", ev.RSI))

	if p.sink != nil {
		if err := p.sink.PublishAlert(ctx, ev); err != nil {
			p.metrics.RecordError("publish_alert")
			p.log.Error("publish alert", logger.Error(err))
		}
	}
	if p.storage != nil {
		if err := p.storage.StoreAlert(ctx, ev); err != nil {
			p.metrics.RecordError("store_alert")
			p.log.Error("store alert", logger.Error(err))
		}
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyAlert(ctx, ev); err != nil {
			p.metrics.RecordError("notify_alert")
			p.log.Error("notify alert", logger.Error(err))
		}
	}
	p.persistSnapshot(ctx, pair)
}

func (p *ObservationProcessor) dispatchDivergence(ctx context.Context, sig *models.DivergenceSignal) {
	p.metrics.RecordDivergence(sig.Symbol, string(sig.Kind))
	p.log.Info("divergence detected",
		logger.String("symbol", sig.Symbol),
		logger.String("timeframe", string(sig.Timeframe)),
		logger.String("kind", string(sig.Kind)))

	if p.sink != nil {
		if err := p.sink.PublishDivergence(ctx, sig); err != nil {
			p.metrics.RecordError("publish_divergence")
			p.log.Error("publish divergence", logger.Error(err))
		}
	}
	if p.storage != nil {
		if err := p.storage.StoreDivergence(ctx, sig); err != nil {
			p.metrics.RecordError("store_divergence")
			p.log.Error("store divergence", logger.Error(err))
		}
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyDivergence(ctx, sig); err != nil {
			p.metrics.RecordError("notify_divergence")
			p.log.Error("notify divergence", logger.Error(err))
		}
	}
}

// persistSnapshot saves the pair snapshot after a zone transition so a
// restart resumes from the latest alert state.
func (p *ObservationProcessor) persistSnapshot(ctx context.Context, pair models.Pair) {
	if p.snapshots == nil {
		return
	}
	snap, err := p.tracker.SnapshotPair(pair)
	if err != nil {
		return
	}
	if err := p.snapshots.Save(ctx, snap); err != nil {
		p.metrics.RecordError("snapshot_save")
		p.log.Error("save snapshot", logger.Error(err), logger.String("pair", pair.String()))
	}
}

// Close closes underlying resources if available.
func (p *ObservationProcessor) Close() {
	if p.sink != nil {
		_ = p.sink.Close()
	}
	if p.storage != nil {
		_ = p.storage.Close()
	}
}
