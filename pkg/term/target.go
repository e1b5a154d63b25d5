// Package term draws progress bars onto a terminal.
package term

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/andrearaponi/gauge/pkg/progress"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

const (
	defaultWidth       = 80
	defaultRefreshRate = 20
)

// Target is a progress.DrawTarget writing to an io.Writer. Unforced
// redraws are limited to a fixed rate. Writers that are *os.File but not
// a terminal are treated as hidden.
type Target struct {
	w       io.Writer
	fd      int
	isFile  bool
	hidden  bool
	width   int
	limiter *rate.Limiter
	drawn   int
	state   progress.DrawState
}

// Option configures a Target.
type Option func(*Target)

// WithRefreshRate caps unforced redraws to hz per second. Zero disables
// the cap.
func WithRefreshRate(hz float64) Option {
	return func(t *Target) {
		if hz <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(hz), 1)
	}
}

// WithWidth fixes the width instead of asking the terminal.
func WithWidth(width int) Option {
	return func(t *Target) { t.width = width }
}

// WithForceTTY draws even when the writer is a file that is not a terminal.
func WithForceTTY() Option {
	return func(t *Target) { t.hidden = false }
}

// New creates a target drawing to w.
func New(w io.Writer, opts ...Option) *Target {
	t := &Target{
		w:       w,
		limiter: rate.NewLimiter(rate.Limit(defaultRefreshRate), 1),
	}
	if f, ok := w.(*os.File); ok {
		t.fd = int(f.Fd())
		t.isFile = true
		t.hidden = !term.IsTerminal(t.fd)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stderr creates a target drawing to standard error.
func Stderr(opts ...Option) *Target {
	return New(os.Stderr, opts...)
}

// Width implements progress.DrawTarget.
func (t *Target) Width() int {
	if t.width > 0 {
		return t.width
	}
	if t.isFile {
		if w, _, err := term.GetSize(t.fd); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

// Drawable implements progress.DrawTarget.
func (t *Target) Drawable(force bool, now time.Time) progress.Drawable {
	if t.hidden {
		return nil
	}
	if !t.limiter.AllowN(now, 1) && !force {
		return nil
	}

	t.state.Lines = t.state.Lines[:0]
	t.state.OrphanLines = 0
	return &drawable{t: t}
}

type drawable struct {
	t *Target
}

func (d *drawable) State() *progress.DrawState { return &d.t.state }

func (d *drawable) Clear() error {
	var buf bytes.Buffer
	d.t.erase(&buf)
	_, err := d.t.w.Write(buf.Bytes())
	return err
}

// Draw replaces the previously drawn bar lines with the current state.
// Orphan lines are written once and scroll away with the terminal.
func (d *drawable) Draw() error {
	t := d.t
	var buf bytes.Buffer
	t.erase(&buf)

	width := t.Width()
	for _, line := range t.state.Lines {
		buf.WriteString(fitLine(line, width))
		buf.WriteByte('\n')
	}
	t.drawn = len(t.state.Lines) - t.state.OrphanLines

	_, err := t.w.Write(buf.Bytes())
	return err
}

func (t *Target) erase(buf *bytes.Buffer) {
	for i := 0; i < t.drawn; i++ {
		buf.WriteString(ansi.CursorUp1)
		buf.WriteByte('\r')
		buf.WriteString(ansi.EraseEntireLine)
	}
	t.drawn = 0
}

// fitLine cuts line to width columns so it never wraps; a wrapped line
// would throw off the number of lines erased on the next redraw.
func fitLine(line string, width int) string {
	if width <= 0 || ansi.StringWidth(line) <= width {
		return line
	}
	return ansi.Truncate(line, width, "")
}
