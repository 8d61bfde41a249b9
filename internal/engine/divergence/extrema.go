package divergence

import "RSIPulse/internal/domain/models"

// FindExtrema locates strict local peaks and troughs in points. A point is a
// peak only if its value is strictly greater than every neighbour within
// swing positions on both sides; troughs are symmetric. Ties are never
// extrema, so flat plateaus do not register. Window edges cannot qualify.
func FindExtrema(points []models.SeriesPoint, swing int) []models.Extremum {
	if swing < 1 {
		swing = 1
	}
	var out []models.Extremum
	for i := swing; i < len(points)-swing; i++ {
		v := points[i].Value
		peak, trough := true, true
		for j := i - swing; j <= i+swing; j++ {
			if j == i {
				continue
			}
			if points[j].Value >= v {
				peak = false
			}
			if points[j].Value <= v {
				trough = false
			}
			if !peak && !trough {
				break
			}
		}
		switch {
		case peak:
			out = append(out, models.Extremum{Index: i, Timestamp: points[i].Timestamp, Value: v, Kind: models.Peak})
		case trough:
			out = append(out, models.Extremum{Index: i, Timestamp: points[i].Timestamp, Value: v, Kind: models.Trough})
		}
	}
	return out
}
