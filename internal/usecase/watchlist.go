package usecase

import (
	"context"
	"fmt"

	"github.com/creasty/defaults"

	"RSIPulse/internal/domain/models"
	drepo "RSIPulse/internal/domain/repository"
	"RSIPulse/internal/engine/tracker"
	"RSIPulse/pkg/logger"
)

// Watchlist manages which pairs the tracker follows and keeps the snapshot
// store in sync with membership changes.
type Watchlist struct {
	tracker   *tracker.Tracker
	snapshots drepo.SnapshotStore
	log       *logger.Logger
}

func NewWatchlist(trk *tracker.Tracker, snapshots drepo.SnapshotStore, log *logger.Logger) *Watchlist {
	return &Watchlist{tracker: trk, snapshots: snapshots, log: log}
}

// Add starts tracking a pair. A nil rule gets the configured defaults. Adding
// an already tracked pair resets it to a cold start.
func (w *Watchlist) Add(ctx context.Context, symbol string, rawTF string, period int, rule *models.AlertRule) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	tf, err := parseTimeframe(rawTF)
	if err != nil {
		return err
	}
	if rule != nil && rule.Overbought <= rule.Oversold {
		return fmt.Errorf("overbought threshold must exceed oversold")
	}

	pair := models.Pair{Symbol: symbol, Timeframe: tf}
	if err := w.tracker.Register(pair, period, rule); err != nil {
		return fmt.Errorf("register %s: %w", pair.String(), err)
	}

	// A stale snapshot must not survive a deliberate reset.
	if w.snapshots != nil {
		if err := w.snapshots.Delete(ctx, pair); err != nil {
			w.log.Warn("delete stale snapshot", logger.Error(err), logger.String("pair", pair.String()))
		}
	}
	w.log.Info("pair added", logger.String("pair", pair.String()), logger.Int("period", period))
	return nil
}

// Remove stops tracking a pair and discards its persisted snapshot.
func (w *Watchlist) Remove(ctx context.Context, symbol string, rawTF string) error {
	tf, err := parseTimeframe(rawTF)
	if err != nil {
		return err
	}
	pair := models.Pair{Symbol: symbol, Timeframe: tf}
	if err := w.tracker.Remove(pair); err != nil {
		return err
	}
	if w.snapshots != nil {
		if err := w.snapshots.Delete(ctx, pair); err != nil {
			w.log.Warn("delete snapshot", logger.Error(err), logger.String("pair", pair.String()))
		}
	}
	w.log.Info("pair removed", logger.String("pair", pair.String()))
	return nil
}

// UpdateRule replaces the alert rule of a tracked pair, effective from the
// next observation.
func (w *Watchlist) UpdateRule(symbol string, rawTF string, rule models.AlertRule) error {
	if rule.Overbought <= rule.Oversold {
		return fmt.Errorf("overbought threshold must exceed oversold")
	}
	tf, err := parseTimeframe(rawTF)
	if err != nil {
		return err
	}
	return w.tracker.SetRule(models.Pair{Symbol: symbol, Timeframe: tf}, rule)
}

func parseTimeframe(raw string) (models.Timeframe, error) {
	if raw == "" {
		return models.DefaultTimeframe(), nil
	}
	tf := models.Timeframe(raw)
	if !models.IsValidTimeframe(tf) {
		return "", fmt.Errorf("unsupported timeframe: %s", raw)
	}
	return tf, nil
}

// Pairs returns the tracked pairs.
func (w *Watchlist) Pairs() []models.Pair { return w.tracker.Pairs() }

// DefaultRule returns an AlertRule populated from its struct defaults.
func DefaultRule() (models.AlertRule, error) {
	var rule models.AlertRule
	if err := defaults.Set(&rule); err != nil {
		return rule, fmt.Errorf("apply rule defaults: %w", err)
	}
	return rule, nil
}

// Restore re-registers pairs from persisted snapshots at startup. Corrupt
// snapshots are skipped so one bad entry cannot block the watchlist.
func (w *Watchlist) Restore(ctx context.Context) (int, error) {
	if w.snapshots == nil {
		return 0, nil
	}
	snaps, err := w.snapshots.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshots: %w", err)
	}

	restored := 0
	for i := range snaps {
		if err := w.tracker.RestorePair(&snaps[i]); err != nil {
			w.log.Warn("skipping unusable snapshot",
				logger.Error(err),
				logger.String("symbol", snaps[i].Symbol),
				logger.String("timeframe", string(snaps[i].Timeframe)))
			continue
		}
		restored++
	}
	if restored > 0 {
		w.log.Info("watchlist restored", logger.Int("pairs", restored))
	}
	return restored, nil
}

// SnapshotAll persists the current state of every tracked pair. Called on
// shutdown and by the periodic snapshot sweep.
func (w *Watchlist) SnapshotAll(ctx context.Context) error {
	if w.snapshots == nil {
		return nil
	}
	var firstErr error
	for _, snap := range w.tracker.Snapshot() {
		s := snap
		if err := w.snapshots.Save(ctx, &s); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("save snapshot %s/%s: %w", s.Symbol, s.Timeframe, err)
		}
	}
	return firstErr
}
