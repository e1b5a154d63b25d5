package progress

import (
	"math"
	"time"
)

// UnknownLength marks a bar whose total amount of work is not known.
const UnknownLength uint64 = math.MaxUint64

// Status is the lifecycle stage of a bar.
type Status int

const (
	StatusInProgress Status = iota
	// StatusDoneVisible is finished and still rendered.
	StatusDoneVisible
	// StatusDoneHidden is finished and rendered as cleared.
	StatusDoneHidden
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusDoneVisible:
		return "done_visible"
	case StatusDoneHidden:
		return "done_hidden"
	default:
		return "unknown"
	}
}

// ProgressState is the state of a progress bar at a moment in time. It is
// handed to formatters and to Update callbacks; it is never shared outside
// the bar's lock.
type ProgressState struct {
	pos     uint64
	len     uint64
	tick    uint64
	started time.Time
	status  Status
	est     Estimator
}

func newProgressState(length uint64, now time.Time) ProgressState {
	return ProgressState{
		len:     length,
		started: now,
		status:  StatusInProgress,
		est:     newEstimator(now),
	}
}

// IsFinished reports whether the bar reached either done state.
func (s *ProgressState) IsFinished() bool {
	return s.status != StatusInProgress
}

// Fraction returns the completion between 0 and 1.
func (s *ProgressState) Fraction() float32 {
	var pct float32
	switch {
	case s.len == 0:
		pct = 1
	case s.pos == 0:
		pct = 0
	default:
		pct = float32(s.pos) / float32(s.len)
	}
	return min(max(pct, 0), 1)
}

// ETA is the expected time until the bar completes.
func (s *ProgressState) ETA() time.Duration {
	if s.len == UnknownLength || s.IsFinished() {
		return 0
	}

	var remaining uint64
	if s.len > s.pos {
		remaining = s.len - s.pos
	}
	return secsToDuration(s.est.secondsPerStep() * float64(remaining))
}

// Duration is the expected total run time, elapsed plus ETA.
func (s *ProgressState) Duration() time.Duration {
	if s.len == UnknownLength || s.IsFinished() {
		return 0
	}
	return s.Elapsed() + s.ETA()
}

// PerSec is the throughput in units per second. While running it is taken
// from the rolling estimate; once finished it is the average over the
// whole run.
func (s *ProgressState) PerSec() float64 {
	if s.status == StatusInProgress {
		perSec := 1 / s.est.secondsPerStep()
		if math.IsNaN(perSec) || math.IsInf(perSec, 0) {
			return 0
		}
		return perSec
	}

	elapsed := durationToSecs(s.Elapsed())
	if elapsed <= 0 {
		return 0
	}
	return float64(s.len) / elapsed
}

func (s *ProgressState) Elapsed() time.Duration { return time.Since(s.started) }

func (s *ProgressState) Started() time.Time { return s.started }

func (s *ProgressState) Status() Status { return s.status }

func (s *ProgressState) Tick() uint64 { return s.tick }

func (s *ProgressState) Pos() uint64 { return s.pos }

func (s *ProgressState) SetPos(pos uint64) { s.pos = pos }

func (s *ProgressState) Len() uint64 { return s.len }

func (s *ProgressState) SetLen(length uint64) { s.len = length }
