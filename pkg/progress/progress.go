// Package progress tracks the state of a terminal progress bar and decides
// when it is redrawn. Rendering is delegated to a Formatter and output to a
// DrawTarget; a bar is hidden until both are set.
package progress

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// shared is the lock-guarded state behind every handle of one bar.
type shared struct {
	mu     sync.Mutex
	bar    BarState
	owners int
}

// owner is one handle's claim on shared. It is kept apart from
// ProgressBar so that a GC cleanup can release it after the handle
// itself is gone.
type owner struct {
	s        *shared
	released atomic.Bool
}

// release gives up this owner's claim. Releasing the last claim finishes
// a bar that is still in progress using its configured ProgressFinish.
func (o *owner) release() {
	if !o.released.CompareAndSwap(false, true) {
		return
	}

	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.owners--
	if s.owners > 0 || s.bar.state.IsFinished() {
		return
	}
	s.bar.finishUsingStyle(time.Now(), s.bar.onFinish)
}

// ProgressBar is a handle to a progress bar. It is safe for concurrent use.
//
// A bar stays alive while at least one handle is open. Call Close when
// done with a handle; Clone hands out additional handles. Releasing the
// last handle of an unfinished bar finishes it with the behavior set by
// WithFinish (FinishAndClear by default). Handles that are garbage
// collected without Close are released too.
type ProgressBar struct {
	ref     *owner
	cleanup runtime.Cleanup
}

// New creates a bar for length units of work.
func New(length uint64, opts ...Option) *ProgressBar {
	now := time.Now()
	s := &shared{bar: newBarState(length, now), owners: 1}

	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.apply(&s.bar)

	pb := newHandle(s)
	if cfg.tickInterval > 0 {
		pb.EnableSteadyTick(cfg.tickInterval)
	}
	return pb
}

// NewSpinner creates a bar of unknown length.
func NewSpinner(opts ...Option) *ProgressBar {
	return New(UnknownLength, opts...)
}

func newHandle(s *shared) *ProgressBar {
	o := &owner{s: s}
	pb := &ProgressBar{ref: o}
	pb.cleanup = runtime.AddCleanup(pb, (*owner).release, o)
	return pb
}

// Clone returns a new handle to the same bar.
func (pb *ProgressBar) Clone() *ProgressBar {
	s := pb.ref.s
	s.mu.Lock()
	s.owners++
	s.mu.Unlock()
	return newHandle(s)
}

// Close releases this handle. It is safe to call more than once.
func (pb *ProgressBar) Close() error {
	pb.cleanup.Stop()
	pb.ref.release()
	return nil
}

func (pb *ProgressBar) with(f func(b *BarState, now time.Time)) {
	s := pb.ref.s
	s.mu.Lock()
	defer s.mu.Unlock()
	f(&s.bar, time.Now())
}

func (pb *ProgressBar) read(f func(b *BarState)) {
	s := pb.ref.s
	s.mu.Lock()
	defer s.mu.Unlock()
	f(&s.bar)
}

// Inc advances the position by delta.
func (pb *ProgressBar) Inc(delta uint64) {
	pb.with(func(b *BarState, now time.Time) { b.inc(now, delta) })
}

// SetPosition moves the position to pos.
func (pb *ProgressBar) SetPosition(pos uint64) {
	pb.with(func(b *BarState, now time.Time) { b.setPosition(now, pos) })
}

// SetLength changes the length of the bar.
func (pb *ProgressBar) SetLength(length uint64) {
	pb.with(func(b *BarState, now time.Time) { b.setLength(now, length) })
}

// IncLength grows the length by delta.
func (pb *ProgressBar) IncLength(delta uint64) {
	pb.with(func(b *BarState, now time.Time) { b.incLength(now, delta) })
}

// SetMessage replaces the message shown next to the bar.
func (pb *ProgressBar) SetMessage(msg string) {
	pb.with(func(b *BarState, now time.Time) { b.setMessage(now, msg) })
}

// SetPrefix replaces the text shown before the bar.
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.with(func(b *BarState, now time.Time) { b.setPrefix(now, prefix) })
}

// Tick advances the animation frame and redraws.
func (pb *ProgressBar) Tick() {
	pb.with(func(b *BarState, now time.Time) { b.tick(now) })
}

// Update applies f to the state under the bar's lock. Any forward change
// of the position is fed to the throughput estimate. f must not call
// methods of the bar.
func (pb *ProgressBar) Update(f func(*ProgressState)) {
	pb.with(func(b *BarState, now time.Time) { b.update(now, f) })
}

// Finish sets the position to the length and leaves the bar visible.
func (pb *ProgressBar) Finish() {
	pb.FinishUsingStyle(FinishAndLeave)
}

// FinishWithMessage fills the bar and replaces its message with msg.
func (pb *ProgressBar) FinishWithMessage(msg string) {
	pb.FinishUsingStyle(FinishWithMessage(msg))
}

// FinishAndClear fills the bar and removes it from the target.
func (pb *ProgressBar) FinishAndClear() {
	pb.FinishUsingStyle(FinishAndClear)
}

// Abandon stops the bar where it is.
func (pb *ProgressBar) Abandon() {
	pb.FinishUsingStyle(FinishAbandon)
}

// AbandonWithMessage stops the bar where it is and sets its message.
func (pb *ProgressBar) AbandonWithMessage(msg string) {
	pb.FinishUsingStyle(FinishAbandonWithMessage(msg))
}

// FinishUsingStyle finishes the bar with the given behavior.
func (pb *ProgressBar) FinishUsingStyle(finish ProgressFinish) {
	pb.with(func(b *BarState, now time.Time) { b.finishUsingStyle(now, finish) })
}

// Reset restarts the bar from zero, reviving it if it was finished.
func (pb *ProgressBar) Reset() {
	pb.ResetMode(ResetAll)
}

// ResetEta drops the throughput history.
func (pb *ProgressBar) ResetEta() {
	pb.ResetMode(ResetEta)
}

// ResetElapsed restarts the elapsed clock.
func (pb *ProgressBar) ResetElapsed() {
	pb.ResetMode(ResetElapsed)
}

// ResetMode resets the parts of the bar selected by mode.
func (pb *ProgressBar) ResetMode(mode Reset) {
	pb.with(func(b *BarState, now time.Time) { b.reset(now, mode) })
}

// Println prints msg above the bar without disturbing it.
func (pb *ProgressBar) Println(msg string) {
	pb.with(func(b *BarState, now time.Time) { b.println(now, msg) })
}

// Suspend hides the bar, runs f and redraws the bar. f must not call
// methods of the bar.
func (pb *ProgressBar) Suspend(f func()) {
	pb.with(func(b *BarState, now time.Time) { b.suspend(now, f) })
}

// SuspendValue is Suspend for functions that return a value.
func SuspendValue[R any](pb *ProgressBar, f func() R) R {
	var ret R
	pb.Suspend(func() { ret = f() })
	return ret
}

// EnableSteadyTick starts a background ticker that redraws the bar every
// interval. Calling it again only changes the interval of the running
// ticker. A zero interval is ignored.
func (pb *ProgressBar) EnableSteadyTick(interval time.Duration) {
	spawnTicker(pb.ref.s, interval)
}

// DisableSteadyTick stops the background ticker, if any. The ticker
// goroutine is woken and returns without drawing again.
func (pb *ProgressBar) DisableSteadyTick() {
	pb.read(func(b *BarState) { b.ticker.stop() })
}

// Position returns the current position.
func (pb *ProgressBar) Position() (pos uint64) {
	pb.read(func(b *BarState) { pos = b.state.pos })
	return pos
}

// Length returns the length, UnknownLength for spinners.
func (pb *ProgressBar) Length() (length uint64) {
	pb.read(func(b *BarState) { length = b.state.len })
	return length
}

// Message returns the current message.
func (pb *ProgressBar) Message() (msg string) {
	pb.read(func(b *BarState) { msg = b.style.Message })
	return msg
}

// Prefix returns the current prefix.
func (pb *ProgressBar) Prefix() (prefix string) {
	pb.read(func(b *BarState) { prefix = b.style.Prefix })
	return prefix
}

// IsFinished reports whether the bar has been finished or abandoned.
func (pb *ProgressBar) IsFinished() (done bool) {
	pb.read(func(b *BarState) { done = b.state.IsFinished() })
	return done
}

// Fraction returns the completed share of the bar, in [0, 1].
func (pb *ProgressBar) Fraction() (f float32) {
	pb.read(func(b *BarState) { f = b.state.Fraction() })
	return f
}

// ETA estimates the time left. It is zero for spinners and finished bars.
func (pb *ProgressBar) ETA() (eta time.Duration) {
	pb.read(func(b *BarState) { eta = b.state.ETA() })
	return eta
}

// Duration estimates the total run time, elapsed time plus ETA.
func (pb *ProgressBar) Duration() (d time.Duration) {
	pb.read(func(b *BarState) { d = b.state.Duration() })
	return d
}

// PerSec returns the throughput in units per second.
func (pb *ProgressBar) PerSec() (rate float64) {
	pb.read(func(b *BarState) { rate = b.state.PerSec() })
	return rate
}

// Elapsed returns the time since the bar started.
func (pb *ProgressBar) Elapsed() (d time.Duration) {
	pb.read(func(b *BarState) { d = b.state.Elapsed() })
	return d
}
