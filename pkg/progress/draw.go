package progress

import "time"

// DrawTarget is the surface a bar renders onto. It owns terminal geometry
// and redraw throttling.
type DrawTarget interface {
	// Width is the number of columns available to a line.
	Width() int
	// Drawable returns a surface for one redraw, or nil when the target
	// suppresses redraws right now and force is false. Implementations
	// must return an untyped nil in that case.
	Drawable(force bool, now time.Time) Drawable
}

// Drawable is a single pending redraw.
type Drawable interface {
	// State exposes the lines to be committed by Draw.
	State() *DrawState
	// Clear erases whatever the target last drew.
	Clear() error
	// Draw commits State to the target.
	Draw() error
}

// DrawState holds the lines of one redraw. The first OrphanLines lines are
// printed once and are not part of the bar.
type DrawState struct {
	Lines       []string
	OrphanLines int
}

// Formatter turns a state into zero or more lines at most width columns wide.
type Formatter interface {
	Format(state *ProgressState, message, prefix string, width int) []string
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(state *ProgressState, message, prefix string, width int) []string

func (f FormatterFunc) Format(state *ProgressState, message, prefix string, width int) []string {
	return f(state, message, prefix, width)
}

// Style carries the free-text parts of a bar and the formatter that lays
// them out.
type Style struct {
	Message   string
	Prefix    string
	Formatter Formatter
}

// FormatState appends the formatted lines for state to lines.
func (s *Style) FormatState(state *ProgressState, lines []string, width int) []string {
	if s.Formatter == nil {
		return lines
	}
	return append(lines, s.Formatter.Format(state, s.Message, s.Prefix, width)...)
}

type hiddenTarget struct{}

// HiddenTarget returns a target that never draws.
func HiddenTarget() DrawTarget { return hiddenTarget{} }

func (hiddenTarget) Width() int { return 0 }

func (hiddenTarget) Drawable(bool, time.Time) Drawable { return nil }
