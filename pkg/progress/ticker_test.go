package progress

import (
	"runtime"
	"testing"
	"time"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentTicker(pb *ProgressBar) *tickerHandle {
	s := pb.ref.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar.ticker
}

func currentTick(pb *ProgressBar) uint64 {
	s := pb.ref.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar.state.tick
}

func exited(h *tickerHandle) bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func TestTicker_ZeroIntervalIsNoop(t *testing.T) {
	pb := New(10)
	defer pb.Close()

	pb.EnableSteadyTick(0)
	assert.Nil(t, currentTicker(pb))
	assert.Equal(t, uint64(0), currentTick(pb))
}

func TestTicker_SpawnTwiceKeepsOneTicker(t *testing.T) {
	target := newRecordingTarget(true)
	pb := New(10, WithDrawTarget(target), WithFormatter(plainFormatter))

	pb.EnableSteadyTick(20 * time.Millisecond)
	first := currentTicker(pb)
	require.NotNil(t, first)

	pb.EnableSteadyTick(5 * time.Millisecond)
	second := currentTicker(pb)
	assert.Same(t, first, second)

	pb.read(func(b *BarState) {
		assert.Equal(t, 5*time.Millisecond, b.ticker.interval)
	})

	require.Eventually(t, func() bool { return currentTick(pb) > 3 },
		2*time.Second, 5*time.Millisecond)
	assert.Greater(t, target.frameCount(), 3)

	pb.Close()
	require.Eventually(t, func() bool { return exited(first) },
		2*time.Second, 5*time.Millisecond)
}

func TestTicker_RunsUntilLastOwnerReleased(t *testing.T) {
	pb := New(10, WithFinish(FinishAbandon))
	clone := pb.Clone()
	clone.EnableSteadyTick(5 * time.Millisecond)
	h := currentTicker(pb)

	pb.Close()
	time.Sleep(30 * time.Millisecond)
	assert.False(t, exited(h), "one owner is still open")

	clone.Close()
	require.Eventually(t, func() bool { return exited(h) },
		2*time.Second, 5*time.Millisecond)
}

func TestTicker_StopsWhenFinished(t *testing.T) {
	pb := New(10)
	defer pb.Close()

	pb.EnableSteadyTick(5 * time.Millisecond)
	h := currentTicker(pb)
	pb.Finish()

	require.Eventually(t, func() bool { return exited(h) },
		2*time.Second, 5*time.Millisecond)
	assert.Nil(t, currentTicker(pb))

	// A revived bar may tick again.
	pb.Reset()
	pb.EnableSteadyTick(5 * time.Millisecond)
	h2 := currentTicker(pb)
	require.NotNil(t, h2)
	assert.NotSame(t, h, h2)
}

func TestTicker_Disable(t *testing.T) {
	pb := New(10)
	defer pb.Close()

	pb.EnableSteadyTick(5 * time.Millisecond)
	h := currentTicker(pb)
	pb.DisableSteadyTick()

	require.Eventually(t, func() bool { return exited(h) },
		2*time.Second, 5*time.Millisecond)
	assert.False(t, pb.IsFinished())
	assert.Nil(t, currentTicker(pb))
}

func TestTicker_DisableWakesSleepingTicker(t *testing.T) {
	pb := New(10)
	defer pb.Close()

	pb.EnableSteadyTick(time.Hour)
	h := currentTicker(pb)
	pb.DisableSteadyTick()

	require.Eventually(t, func() bool { return exited(h) },
		2*time.Second, 5*time.Millisecond)
}

func TestTicker_ReenableReusesGoroutine(t *testing.T) {
	target := newRecordingTarget(true)
	pb := New(10, WithDrawTarget(target), WithFormatter(plainFormatter))
	defer pb.Close()

	pb.EnableSteadyTick(200 * time.Millisecond)
	first := currentTicker(pb)
	require.NotNil(t, first)

	// Disable and enable again before the woken goroutine gets the lock.
	s := pb.ref.s
	s.mu.Lock()
	s.bar.ticker.stop()
	spawnTickerLocked(s, 5*time.Millisecond)
	second := s.bar.ticker
	assert.False(t, second.stopped)
	assert.Equal(t, 5*time.Millisecond, second.interval)
	s.mu.Unlock()

	assert.Same(t, first, second)
	assert.Equal(t, first.done, second.done)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, exited(first), "the revived ticker keeps running")
	assert.Same(t, first, currentTicker(pb))

	tick := currentTick(pb)
	require.Eventually(t, func() bool { return currentTick(pb) > tick+2 },
		2*time.Second, 5*time.Millisecond)
}

func TestTicker_ReenableNeverRunsTwoTickers(t *testing.T) {
	pb := New(10)
	defer pb.Close()

	pb.EnableSteadyTick(time.Hour)
	first := currentTicker(pb)
	pb.DisableSteadyTick()
	pb.EnableSteadyTick(time.Hour)
	second := currentTicker(pb)
	require.NotNil(t, second)

	if second != first {
		// The first goroutine returned before the second one was started.
		require.Eventually(t, func() bool { return exited(first) },
			2*time.Second, 5*time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	assert.False(t, exited(second))

	pb.DisableSteadyTick()
	require.Eventually(t, func() bool { return exited(second) },
		2*time.Second, 5*time.Millisecond)
}

func TestTicker_StoppedHandleLeavesTickToCaller(t *testing.T) {
	pb := New(10)
	defer pb.Close()

	pb.ref.s.mu.Lock()
	pb.ref.s.bar.ticker = &tickerHandle{interval: time.Hour, stopped: true, done: make(chan struct{})}
	pb.ref.s.mu.Unlock()

	pb.Tick()
	pb.Tick()
	assert.Equal(t, uint64(2), currentTick(pb))

	tk := &ticker{bar: weak.Make(pb.ref.s), handle: currentTicker(pb)}
	assert.False(t, tk.step(false))
	assert.Nil(t, currentTicker(pb))
}

func TestTicker_WokenStepDoesNotDraw(t *testing.T) {
	pb := New(10)
	defer pb.Close()
	pb.Tick()

	pb.ref.s.mu.Lock()
	pb.ref.s.bar.ticker = &tickerHandle{interval: time.Minute, done: make(chan struct{})}
	pb.ref.s.mu.Unlock()

	tk := &ticker{bar: weak.Make(pb.ref.s), handle: currentTicker(pb), interval: time.Hour}
	require.True(t, tk.step(true))
	assert.Equal(t, uint64(1), currentTick(pb))
	assert.Equal(t, time.Minute, tk.interval)
}

func TestTicker_ExitsWhenBarIsCollected(t *testing.T) {
	h := func() *tickerHandle {
		pb := New(10)
		pb.EnableSteadyTick(5 * time.Millisecond)
		return currentTicker(pb)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return exited(h)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTicker_DoesNotAnimateBeforeFirstTick(t *testing.T) {
	pb := New(10)
	defer pb.Close()

	pb.ref.s.mu.Lock()
	pb.ref.s.bar.ticker = &tickerHandle{interval: time.Hour, done: make(chan struct{})}
	pb.ref.s.mu.Unlock()

	tk := &ticker{bar: weak.Make(pb.ref.s), handle: currentTicker(pb)}
	require.True(t, tk.step(false))
	assert.Equal(t, uint64(0), currentTick(pb), "counter stays at zero until something ticks")

	pb.Tick()
	require.True(t, tk.step(false))
	assert.Equal(t, uint64(2), currentTick(pb))
}
