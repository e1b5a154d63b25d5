// Package style renders a progress.ProgressState as a single terminal line.
package style

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/andrearaponi/gauge/pkg/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// Units selects how positions and rates are printed.
type Units int

const (
	Items Units = iota
	Bytes
)

// ParseUnits maps a config value to Units.
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(s) {
	case "", "items":
		return Items, nil
	case "bytes":
		return Bytes, nil
	default:
		return Items, fmt.Errorf("unknown units %q", s)
	}
}

var (
	defaultSpinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// Bar lays out "{prefix}[{bar}] {pos}/{len} {pct} {rate} ETA {eta} {msg}"
// for bars of known length and a spinner line otherwise.
type Bar struct {
	// Cells is the widest the bar itself may grow.
	Cells   int
	Filled  string
	Empty   string
	Units   Units
	Spinner []string
	// Done replaces the spinner once a bar of unknown length finishes.
	Done string
}

// NewBar returns a Bar with the default look.
func NewBar(units Units) *Bar {
	return &Bar{
		Cells:   40,
		Filled:  "█",
		Empty:   "░",
		Units:   units,
		Spinner: defaultSpinner,
		Done:    "✓",
	}
}

// Format implements progress.Formatter.
func (b *Bar) Format(st *progress.ProgressState, message, prefix string, width int) []string {
	var line string
	if st.Len() == progress.UnknownLength {
		line = b.spinnerLine(st, message, prefix, width)
	} else {
		line = b.barLine(st, message, prefix, width)
	}

	if width > 0 {
		line = ansi.Truncate(line, width, "")
	}
	return []string{line}
}

func (b *Bar) barLine(st *progress.ProgressState, message, prefix string, width int) string {
	var stats string
	if st.IsFinished() {
		stats = fmt.Sprintf("%s/%s %s in %s",
			b.count(st.Pos()), b.count(st.Len()), b.rate(st.PerSec()), FormatDuration(st.Elapsed()))
	} else {
		stats = fmt.Sprintf("%s/%s %3.0f%% %s ETA %s",
			b.count(st.Pos()), b.count(st.Len()), st.Fraction()*100, b.rate(st.PerSec()), FormatDuration(st.ETA()))
	}

	used := runewidth.StringWidth(prefix) + runewidth.StringWidth(stats) + 3
	cells := b.Cells
	if width > 0 {
		cells = min(cells, width-used)
	}

	var line strings.Builder
	line.WriteString(prefix)
	if cells > 0 {
		filled := int(math.Round(float64(st.Fraction()) * float64(cells)))
		line.WriteString("[")
		line.WriteString(filledStyle.Render(strings.Repeat(b.Filled, filled)))
		line.WriteString(emptyStyle.Render(strings.Repeat(b.Empty, cells-filled)))
		line.WriteString("] ")
		used += cells
	}
	line.WriteString(stats)
	line.WriteString(b.tail(message, width, used))
	return line.String()
}

func (b *Bar) spinnerLine(st *progress.ProgressState, message, prefix string, width int) string {
	frame := b.Done
	if !st.IsFinished() && len(b.Spinner) > 0 {
		frame = b.Spinner[st.Tick()%uint64(len(b.Spinner))]
	}

	stats := fmt.Sprintf("%s %s [%s]", b.count(st.Pos()), b.rate(st.PerSec()), FormatDuration(st.Elapsed()))
	if st.IsFinished() {
		stats = fmt.Sprintf("%s [%s]", b.count(st.Pos()), FormatDuration(st.Elapsed()))
	}
	used := runewidth.StringWidth(prefix) + runewidth.StringWidth(frame) + 1 + runewidth.StringWidth(stats)

	head := frame
	if st.IsFinished() {
		head = doneStyle.Render(frame)
	}
	return prefix + head + " " + stats + b.tail(message, width, used)
}

// tail fits the message into what is left of the line.
func (b *Bar) tail(message string, width, used int) string {
	if message == "" {
		return ""
	}
	if width <= 0 {
		return " " + message
	}

	room := width - used - 1
	if room <= 0 {
		return ""
	}
	return " " + runewidth.Truncate(message, room, "…")
}

func (b *Bar) count(n uint64) string {
	if b.Units == Bytes {
		return humanize.IBytes(n)
	}
	if n > math.MaxInt64 {
		return "∞"
	}
	return humanize.Comma(int64(n))
}

func (b *Bar) rate(perSec float64) string {
	perSec = min(max(perSec, 0), math.MaxInt64)
	if b.Units == Bytes {
		return humanize.IBytes(uint64(perSec)) + "/s"
	}
	return humanize.FormatFloat("#,###.#", perSec) + "/s"
}

// FormatDuration prints d as "12s", "3m 4s" or "1h 2m 3s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
