package usecase

import (
	"context"
	"fmt"
	"time"

	"RSIPulse/internal/domain/models"
	drepo "RSIPulse/internal/domain/repository"
	"RSIPulse/internal/engine/tracker"
	"RSIPulse/pkg/util"
)

// PointsUseCase serves the RSI series of a pair. Recent points come from the
// in-memory tracker buffers; a time range reaching past the retained window
// falls back to storage.
type PointsUseCase struct {
	tracker *tracker.Tracker
	storage drepo.SignalStorage
}

func NewPointsUseCase(trk *tracker.Tracker, storage drepo.SignalStorage) *PointsUseCase {
	return &PointsUseCase{tracker: trk, storage: storage}
}

type GetPointsParams struct {
	Symbol    string
	Timeframe models.Timeframe
	From      time.Time
	To        time.Time
	Limit     int
}

type GetPointsResult struct {
	Symbol    string            `json:"symbol"`
	Timeframe string            `json:"timeframe"`
	From      time.Time         `json:"from"`
	To        time.Time         `json:"to"`
	Count     int               `json:"count"`
	Points    []models.RSIPoint `json:"points"`
}

func (uc *PointsUseCase) GetPoints(ctx context.Context, p GetPointsParams) (*GetPointsResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.To.IsZero() {
		p.To = time.Now()
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 10000 {
		p.Limit = 10000
	}
	p.From, p.To = util.AlignFromTo(p.From, p.To, string(p.Timeframe))

	pair := models.Pair{Symbol: p.Symbol, Timeframe: p.Timeframe}
	points, err := uc.fetch(ctx, pair, p)
	if err != nil {
		return nil, err
	}
	if len(points) > p.Limit {
		points = points[len(points)-p.Limit:]
	}

	return &GetPointsResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(points),
		Points:    points,
	}, nil
}

// fetch serves the range from the tracker buffer when it covers the start of
// range, falling back to storage otherwise. Untracked pairs are an error even
// when storage still holds their history.
func (uc *PointsUseCase) fetch(ctx context.Context, pair models.Pair, p GetPointsParams) ([]models.RSIPoint, error) {
	buffered, err := uc.tracker.Points(pair)
	if err != nil {
		return nil, err
	}
	if uc.storage == nil || covers(buffered, p.From) {
		out := make([]models.RSIPoint, 0, len(buffered))
		for _, sp := range buffered {
			if sp.Timestamp.Before(p.From) || sp.Timestamp.After(p.To) {
				continue
			}
			out = append(out, models.RSIPoint{Timestamp: sp.Timestamp, Value: sp.Value})
		}
		return out, nil
	}

	points, qerr := uc.storage.QueryPoints(ctx, pair, p.From, p.To, p.Limit)
	if qerr != nil {
		return nil, fmt.Errorf("query points: %w", qerr)
	}
	return points, nil
}

// covers reports whether the buffered window already contains the requested
// start of range.
func covers(points []models.SeriesPoint, from time.Time) bool {
	if len(points) == 0 {
		return false
	}
	return !points[0].Timestamp.After(from)
}
