package progress

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// tickerHandle is the bar's record of its background ticker. A stopped
// handle stays installed until its goroutine notices, so a bar never has
// more than one ticker goroutine. done is closed when the goroutine
// returns.
type tickerHandle struct {
	interval time.Duration
	stopped  bool
	wake     chan struct{}
	done     chan struct{}
}

// live reports whether the ticker is driving the bar.
func (h *tickerHandle) live() bool {
	return h != nil && !h.stopped
}

// stop marks the ticker stopped and wakes it so it returns.
func (h *tickerHandle) stop() {
	if h == nil {
		return
	}
	h.stopped = true
	h.notify()
}

// notify interrupts the ticker's current sleep.
func (h *tickerHandle) notify() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// BarState is everything behind a bar's lock.
type BarState struct {
	drawTarget DrawTarget
	onFinish   ProgressFinish
	style      Style
	state      ProgressState
	ticker     *tickerHandle
	logger     *zap.Logger
}

func newBarState(length uint64, now time.Time) BarState {
	return BarState{
		drawTarget: HiddenTarget(),
		onFinish:   FinishAndClear,
		state:      newProgressState(length, now),
		logger:     zap.NewNop(),
	}
}

// finishUsingStyle marks the bar done and applies finish. Throughput
// queries switch to whole-run averages once the status leaves
// StatusInProgress, so the estimator is not touched.
func (b *BarState) finishUsingStyle(now time.Time, finish ProgressFinish) {
	b.state.status = StatusDoneVisible
	switch finish.kind {
	case finishAndLeave:
		b.state.pos = b.state.len
	case finishWithMessage:
		b.state.pos = b.state.len
		b.style.Message = finish.message
	case finishAndClear:
		b.state.pos = b.state.len
		b.state.status = StatusDoneHidden
	case finishAbandon:
	case finishAbandonWithMessage:
		b.style.Message = finish.message
	}

	b.drawQuietly("finish", true, now)
}

func (b *BarState) reset(now time.Time, mode Reset) {
	if mode == ResetEta || mode == ResetAll {
		b.state.est.reset(now)
	}

	if mode == ResetElapsed || mode == ResetAll {
		b.state.started = now
	}

	if mode == ResetAll {
		b.state.pos = 0
		b.state.status = StatusInProgress
		b.drawQuietly("reset", true, now)
	}
}

func (b *BarState) update(now time.Time, f func(*ProgressState)) {
	old := b.state.pos
	f(&b.state)
	b.state.est.record(saturatingSub(b.state.pos, old), now)
	b.tick(now)
}

func (b *BarState) setPosition(now time.Time, pos uint64) {
	old := b.state.pos
	b.state.pos = pos
	b.state.est.record(saturatingSub(pos, old), now)
	b.tick(now)
}

func (b *BarState) inc(now time.Time, delta uint64) {
	b.state.pos = saturatingAdd(b.state.pos, delta)
	b.state.est.record(delta, now)
	b.tick(now)
}

func (b *BarState) setLength(now time.Time, length uint64) {
	b.state.len = length
	b.tick(now)
}

func (b *BarState) incLength(now time.Time, delta uint64) {
	b.state.len = saturatingAdd(b.state.len, delta)
	b.tick(now)
}

func (b *BarState) setMessage(now time.Time, msg string) {
	b.style.Message = msg
	b.tick(now)
}

func (b *BarState) setPrefix(now time.Time, prefix string) {
	b.style.Prefix = prefix
	b.tick(now)
}

// tick advances the animation frame when nothing else does and redraws.
// With a live ticker the counter is left to the ticker once it is nonzero.
func (b *BarState) tick(now time.Time) {
	if !b.ticker.live() || b.state.tick == 0 {
		b.state.tick = saturatingAdd(b.state.tick, 1)
	}

	b.drawQuietly("tick", false, now)
}

func (b *BarState) println(now time.Time, msg string) {
	width := b.drawTarget.Width()
	d := b.drawTarget.Drawable(true, now)
	if d == nil {
		return
	}

	ds := d.State()
	ds.Lines = append(ds.Lines, splitLines(msg)...)
	ds.OrphanLines = len(ds.Lines)
	if b.state.status != StatusDoneHidden {
		ds.Lines = b.style.FormatState(&b.state, ds.Lines, width)
	}

	if err := d.Draw(); err != nil {
		b.logger.Debug("println draw failed", zap.Error(err))
	}
}

func (b *BarState) suspend(now time.Time, f func()) {
	if d := b.drawTarget.Drawable(true, now); d != nil {
		if err := d.Clear(); err != nil {
			b.logger.Debug("suspend clear failed", zap.Error(err))
		}
	}

	defer b.drawQuietly("suspend", true, now)
	f()
}

func (b *BarState) draw(force bool, now time.Time) error {
	width := b.drawTarget.Width()
	force = force || b.state.IsFinished()
	d := b.drawTarget.Drawable(force, now)
	if d == nil {
		return nil
	}

	if b.state.status != StatusDoneHidden {
		ds := d.State()
		ds.Lines = b.style.FormatState(&b.state, ds.Lines, width)
	}

	return d.Draw()
}

// drawQuietly draws and drops the error; rendering is best effort.
func (b *BarState) drawQuietly(op string, force bool, now time.Time) {
	if err := b.draw(force, now); err != nil {
		b.logger.Debug("draw failed", zap.String("op", op), zap.Error(err))
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func saturatingAdd(a, b uint64) uint64 {
	if a > UnknownLength-b {
		return UnknownLength
	}
	return a + b
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
