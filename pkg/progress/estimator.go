package progress

import (
	"math"
	"time"
)

const estimatorCapacity = 16

// Estimator keeps a rolling window of the last 16 observed rates, in
// seconds per unit of work.
type Estimator struct {
	steps [estimatorCapacity]float64
	pos   uint8
	full  bool
	prev  time.Time
}

func newEstimator(now time.Time) Estimator {
	return Estimator{prev: now}
}

// record stores the rate implied by delta units completed since the
// previous sample. A zero delta is ignored and does not move prev.
func (e *Estimator) record(delta uint64, now time.Time) {
	if delta == 0 {
		return
	}

	elapsed := now.Sub(e.prev)
	e.steps[e.pos] = durationToSecs(elapsed) / float64(delta)
	e.pos = (e.pos + 1) % estimatorCapacity
	if !e.full && e.pos == 0 {
		e.full = true
	}

	e.prev = now
}

func (e *Estimator) reset(now time.Time) {
	e.pos = 0
	e.full = false
	e.prev = now
}

// secondsPerStep averages the populated slots. It is NaN when nothing has
// been recorded yet.
func (e *Estimator) secondsPerStep() float64 {
	n := e.len()
	var sum float64
	for _, s := range e.steps[:n] {
		sum += s
	}
	return sum / float64(n)
}

func (e *Estimator) len() int {
	if e.full {
		return estimatorCapacity
	}
	return int(e.pos)
}

func durationToSecs(d time.Duration) float64 {
	return float64(d/time.Second) + float64(d%time.Second)/1e9
}

func secsToDuration(s float64) time.Duration {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	if s >= float64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}

	secs := math.Trunc(s)
	nanos := uint32((s - secs) * 1e9)
	return time.Duration(secs)*time.Second + time.Duration(nanos)
}
