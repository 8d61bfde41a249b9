package divergence

import (
	"fmt"
	"time"

	"RSIPulse/internal/domain/models"
)

// Detector classifies divergence between a price series and its RSI series
// over a bounded window. Scanning itself is a pure function of the buffers;
// the detector only remembers which extremum pairs already produced a signal
// so the same divergence is not re-emitted as the window slides.
type Detector struct {
	swing  int
	maxLag int
	seen   map[string]time.Time // pair key -> newer price extremum timestamp
}

// NewDetector creates a detector with the given swing window (points either
// side of a candidate extremum) and maximum pairing lag in bars.
func NewDetector(swing, maxLag int) *Detector {
	if swing < 1 {
		swing = 2
	}
	if maxLag < 1 {
		maxLag = 3
	}
	return &Detector{swing: swing, maxLag: maxLag, seen: make(map[string]time.Time)}
}

// Scan returns every divergence currently present in the buffers, regardless
// of whether it was reported before. Re-running on the same buffers yields
// the same result.
func (d *Detector) Scan(pair models.Pair, prices, rsis []models.SeriesPoint, now time.Time) []models.DivergenceSignal {
	priceExt := FindExtrema(prices, d.swing)
	rsiExt := FindExtrema(rsis, d.swing)

	var out []models.DivergenceSignal
	out = append(out, d.classify(pair, priceExt, rsiExt, models.Peak, now)...)
	out = append(out, d.classify(pair, priceExt, rsiExt, models.Trough, now)...)
	return out
}

// Detect scans the buffers and returns only divergences not reported before.
func (d *Detector) Detect(pair models.Pair, prices, rsis []models.SeriesPoint, now time.Time) []models.DivergenceSignal {
	var fresh []models.DivergenceSignal
	for _, sig := range d.Scan(pair, prices, rsis, now) {
		key := pairKey(sig)
		if _, ok := d.seen[key]; ok {
			continue
		}
		d.seen[key] = sig.PricePair[1].Timestamp
		fresh = append(fresh, sig)
	}
	return fresh
}

// Evict drops bookkeeping for extremum pairs older than windowStart, keeping
// the seen-set bounded to the lookback window.
func (d *Detector) Evict(windowStart time.Time) {
	for k, ts := range d.seen {
		if ts.Before(windowStart) {
			delete(d.seen, k)
		}
	}
}

func (d *Detector) classify(pair models.Pair, priceExt, rsiExt []models.Extremum, kind models.ExtremumKind, now time.Time) []models.DivergenceSignal {
	price := filterKind(priceExt, kind)
	rsis := filterKind(rsiExt, kind)
	if len(price) < 2 || len(rsis) < 2 {
		return nil
	}

	// Walk price extrema newest to oldest and keep the two most recent that
	// pair with distinct RSI counterparts; extrema without a counterpart
	// within maxLag are ignored for this scan.
	var p0, p1, r0, r1 models.Extremum
	paired := 0
	for i := len(price) - 1; i >= 0 && paired < 2; i-- {
		r, ok := nearest(rsis, price[i].Index, d.maxLag)
		if !ok {
			continue
		}
		if paired == 1 && r.Index == r1.Index {
			continue
		}
		if paired == 0 {
			p1, r1 = price[i], r
		} else {
			p0, r0 = price[i], r
		}
		paired++
	}
	if paired < 2 {
		return nil
	}

	var dk models.DivergenceKind
	switch kind {
	case models.Peak:
		switch {
		case p1.Value > p0.Value && r1.Value < r0.Value:
			dk = models.BearishRegular
		case p1.Value < p0.Value && r1.Value > r0.Value:
			dk = models.BearishHidden
		default:
			return nil // equal values on either series are not divergence
		}
	default:
		switch {
		case p1.Value < p0.Value && r1.Value > r0.Value:
			dk = models.BullishRegular
		case p1.Value > p0.Value && r1.Value < r0.Value:
			dk = models.BullishHidden
		default:
			return nil
		}
	}

	return []models.DivergenceSignal{{
		Symbol:     pair.Symbol,
		Timeframe:  pair.Timeframe,
		Kind:       dk,
		PricePair:  [2]models.Extremum{p0, p1},
		RSIPair:    [2]models.Extremum{r0, r1},
		DetectedAt: now,
	}}
}

func filterKind(ext []models.Extremum, kind models.ExtremumKind) []models.Extremum {
	var out []models.Extremum
	for _, e := range ext {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// nearest returns the extremum closest in bar index to target, if any lies
// within maxLag bars.
func nearest(ext []models.Extremum, target, maxLag int) (models.Extremum, bool) {
	best := models.Extremum{}
	bestDist := maxLag + 1
	for _, e := range ext {
		dist := e.Index - target
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best = e
			bestDist = dist
		}
	}
	return best, bestDist <= maxLag
}

func pairKey(s models.DivergenceSignal) string {
	return fmt.Sprintf("%s|%d|%d", s.Kind, s.PricePair[0].Timestamp.UnixNano(), s.PricePair[1].Timestamp.UnixNano())
}
