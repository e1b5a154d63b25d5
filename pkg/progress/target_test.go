package progress

import (
	"fmt"
	"sync"
	"time"
)

// recordingTarget remembers every committed frame. Unforced redraws are
// refused unless allow is set.
type recordingTarget struct {
	mu       sync.Mutex
	width    int
	allow    bool
	drawErr  error
	clearErr error
	frames   []DrawState
	clears   int
}

func newRecordingTarget(allow bool) *recordingTarget {
	return &recordingTarget{width: 80, allow: allow}
}

func (t *recordingTarget) Width() int { return t.width }

func (t *recordingTarget) Drawable(force bool, _ time.Time) Drawable {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !force && !t.allow {
		return nil
	}
	return &recordingDrawable{t: t}
}

func (t *recordingTarget) frameCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

func (t *recordingTarget) lastFrame() DrawState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.frames) == 0 {
		return DrawState{}
	}
	return t.frames[len(t.frames)-1]
}

func (t *recordingTarget) clearCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clears
}

type recordingDrawable struct {
	t     *recordingTarget
	state DrawState
}

func (d *recordingDrawable) State() *DrawState { return &d.state }

func (d *recordingDrawable) Clear() error {
	d.t.mu.Lock()
	defer d.t.mu.Unlock()
	d.t.clears++
	return d.t.clearErr
}

func (d *recordingDrawable) Draw() error {
	d.t.mu.Lock()
	defer d.t.mu.Unlock()
	d.t.frames = append(d.t.frames, DrawState{
		Lines:       append([]string(nil), d.state.Lines...),
		OrphanLines: d.state.OrphanLines,
	})
	return d.t.drawErr
}

var plainFormatter = FormatterFunc(func(st *ProgressState, message, prefix string, _ int) []string {
	return []string{fmt.Sprintf("%s%d/%d %s", prefix, st.Pos(), st.Len(), message)}
})

func newTestBarState(length uint64, now time.Time, target DrawTarget) BarState {
	b := newBarState(length, now)
	b.drawTarget = target
	b.style.Formatter = plainFormatter
	return b
}
