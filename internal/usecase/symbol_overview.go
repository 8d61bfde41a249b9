package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RSIPulse/internal/domain/models"
	"RSIPulse/internal/engine/tracker"
)

// SymbolOverviewUseCase assembles the dashboard view of one symbol: latest
// RSI per tracked timeframe plus the cross-timeframe agreement score, fetched
// concurrently under a shared timeout.
type SymbolOverviewUseCase struct {
	tracker *tracker.Tracker
	timeout time.Duration
}

func NewSymbolOverviewUseCase(trk *tracker.Tracker) *SymbolOverviewUseCase {
	return &SymbolOverviewUseCase{tracker: trk, timeout: 5 * time.Second}
}

func (uc *SymbolOverviewUseCase) GetOverview(ctx context.Context, symbol string) (*models.SymbolOverview, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	var tfs []models.Timeframe
	for _, pair := range uc.tracker.Pairs() {
		if pair.Symbol == symbol {
			tfs = append(tfs, pair.Timeframe)
		}
	}
	if len(tfs) == 0 {
		return nil, tracker.ErrUnknownPair
	}

	res := &models.SymbolOverview{
		Symbol:    symbol,
		Timestamp: time.Now(),
		Latest:    make(map[models.Timeframe]*models.RSIPoint, len(tfs)),
		Zones:     make(map[models.Timeframe]models.Zone, len(tfs)),
		Errors:    map[string]string{},
	}

	type item struct {
		name  string
		tf    models.Timeframe
		point *models.RSIPoint
		score *models.AgreementScore
		err   error
	}
	ch := make(chan item, len(tfs)+1)
	var wg sync.WaitGroup

	for _, tf := range tfs {
		wg.Add(1)
		go func(tf models.Timeframe) {
			defer wg.Done()
			p, err := uc.tracker.CurrentRSI(models.Pair{Symbol: symbol, Timeframe: tf})
			ch <- item{name: "rsi_" + string(tf), tf: tf, point: p, err: err}
		}(tf)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		score, err := uc.tracker.Agreement(symbol)
		ch <- item{name: "agreement", score: score, err: err}
	}()

	go func() { wg.Wait(); close(ch) }()

collect:
	for {
		select {
		case <-ctx.Done():
			res.Errors["overview"] = ctx.Err().Error()
			break collect
		case it, ok := <-ch:
			if !ok {
				break collect
			}
			if it.err != nil {
				res.Errors[it.name] = it.err.Error()
				continue
			}
			if it.score != nil {
				res.Agreement = it.score
				res.Zones = it.score.ByTimeframe
				continue
			}
			res.Latest[it.tf] = it.point
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
