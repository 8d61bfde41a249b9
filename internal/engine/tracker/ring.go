package tracker

import "RSIPulse/internal/domain/models"

// ring is a bounded FIFO of series points. Pushing beyond capacity evicts the
// oldest point.
type ring struct {
	buf   []models.SeriesPoint
	start int
	count int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]models.SeriesPoint, capacity)}
}

func (r *ring) Push(p models.SeriesPoint) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = p
		r.count++
		return
	}
	r.buf[r.start] = p
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) Len() int { return r.count }

// Oldest returns the first retained point and false when the ring is empty.
func (r *ring) Oldest() (models.SeriesPoint, bool) {
	if r.count == 0 {
		return models.SeriesPoint{}, false
	}
	return r.buf[r.start], true
}

// Points returns the retained points oldest-first as a fresh slice.
func (r *ring) Points() []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}
