package rsi

import (
	"errors"
	"time"

	"RSIPulse/internal/domain/models"
)

var (
	// ErrInvalidPeriod is returned when constructing a calculator with period < 2.
	ErrInvalidPeriod = errors.New("rsi: period must be at least 2")
	// ErrOutOfOrderObservation is returned for an observation older than the
	// last one accepted for the series. State is left unchanged.
	ErrOutOfOrderObservation = errors.New("rsi: observation out of order")
)

// Calculator maintains the incremental state of one RSI series using Wilder's
// smoothing. During warmup avgGain/avgLoss accumulate plain sums; once
// warmupCount reaches the period they hold the smoothed averages. Each update
// is O(1).
type Calculator struct {
	period      int
	avgGain     float64
	avgLoss     float64
	warmupCount int
	lastClose   float64
	seeded      bool
	lastTS      time.Time
}

// New creates a calculator for the given lookback period.
func New(period int) (*Calculator, error) {
	if period < 2 {
		return nil, ErrInvalidPeriod
	}
	return &Calculator{period: period}, nil
}

// Period returns the configured lookback period.
func (c *Calculator) Period() int { return c.period }

// Warm reports whether the calculator has emitted at least one RSI value.
func (c *Calculator) Warm() bool { return c.warmupCount >= c.period }

// Update consumes the next observation for this series and returns the
// computed RSI point, or nil while the series is still warming up.
func (c *Calculator) Update(o *models.Observation) (*models.RSIPoint, error) {
	if c.seeded && o.Timestamp.Before(c.lastTS) {
		return nil, ErrOutOfOrderObservation
	}

	if !c.seeded {
		c.lastClose = o.Close
		c.lastTS = o.Timestamp
		c.seeded = true
		return nil, nil
	}

	delta := o.Close - c.lastClose
	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	c.lastClose = o.Close
	c.lastTS = o.Timestamp

	if c.warmupCount < c.period {
		// Warmup: accumulate simple sums; the first RSI comes from their means.
		c.avgGain += gain
		c.avgLoss += loss
		c.warmupCount++
		if c.warmupCount < c.period {
			return nil, nil
		}
		c.avgGain /= float64(c.period)
		c.avgLoss /= float64(c.period)
	} else {
		n := float64(c.period)
		c.avgGain = (c.avgGain*(n-1) + gain) / n
		c.avgLoss = (c.avgLoss*(n-1) + loss) / n
	}

	return &models.RSIPoint{Timestamp: o.Timestamp, Value: c.value()}, nil
}

func (c *Calculator) value() float64 {
	if c.avgLoss == 0 {
		if c.avgGain == 0 {
			return 50 // flat series
		}
		return 100
	}
	rs := c.avgGain / c.avgLoss
	v := 100 - 100/(1+rs)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Snapshot exports the calculator state into snap for warm restart.
func (c *Calculator) Snapshot(snap *models.PairSnapshot) {
	snap.Period = c.period
	snap.AvgGain = c.avgGain
	snap.AvgLoss = c.avgLoss
	snap.WarmupCount = c.warmupCount
	snap.LastTimestamp = c.lastTS
	if c.seeded {
		last := c.lastClose
		snap.LastClose = &last
	}
}

// FromSnapshot reconstructs a calculator so it resumes from the observation
// following the snapshot, without replaying history.
func FromSnapshot(snap *models.PairSnapshot) (*Calculator, error) {
	if snap.Period < 2 {
		return nil, ErrInvalidPeriod
	}
	c := &Calculator{
		period:      snap.Period,
		avgGain:     snap.AvgGain,
		avgLoss:     snap.AvgLoss,
		warmupCount: snap.WarmupCount,
		lastTS:      snap.LastTimestamp,
	}
	if snap.LastClose != nil {
		c.lastClose = *snap.LastClose
		c.seeded = true
	}
	return c, nil
}
