package progress

import (
	"time"
	"weak"
)

// ticker redraws a bar on a fixed cadence so spinners and ETAs move
// between explicit updates. It only holds a weak pointer to the bar: once
// every owner is released the pointer stops resolving and the goroutine
// returns on its own.
type ticker struct {
	bar      weak.Pointer[shared]
	handle   *tickerHandle
	interval time.Duration
}

func spawnTicker(s *shared, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spawnTickerLocked(s, interval)
}

// spawnTickerLocked is spawnTicker for callers holding s.mu.
func spawnTickerLocked(s *shared, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if h := s.bar.ticker; h != nil {
		// The goroutine behind a stopped handle has not returned yet; take
		// it over instead of starting a second one.
		h.interval = interval
		h.stopped = false
		h.notify()
		return
	}

	h := &tickerHandle{
		interval: interval,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	s.bar.ticker = h
	t := &ticker{bar: weak.Make(s), handle: h, interval: interval}
	go t.run()

	s.bar.tick(time.Now())
}

func (t *ticker) run() {
	defer close(t.handle.done)

	for {
		woken := t.sleep()
		if !t.step(woken) {
			return
		}
	}
}

// sleep waits for the current interval and reports whether it was cut
// short by the handle being stopped or revived.
func (t *ticker) sleep() bool {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return false
	case <-t.handle.wake:
		return true
	}
}

// step performs one wake-up and reports whether the ticker should keep
// going. A wake-up caused by notify only picks up the new interval. The
// strong pointer obtained from the weak one does not outlive this call.
func (t *ticker) step(woken bool) bool {
	s := t.bar.Value()
	if s == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owners == 0 || s.bar.ticker != t.handle {
		return false
	}
	if t.handle.stopped || s.bar.state.IsFinished() {
		s.bar.ticker = nil
		return false
	}

	t.interval = t.handle.interval
	if woken {
		return true
	}

	if s.bar.state.tick != 0 {
		s.bar.state.tick = saturatingAdd(s.bar.state.tick, 1)
	}
	s.bar.drawQuietly("ticker", false, time.Now())
	return true
}
