package progress

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFinish is returned by ParseFinish for an unrecognized name.
var ErrUnknownFinish = errors.New("unknown finish behavior")

type finishKind int

const (
	finishAndClear finishKind = iota
	finishAndLeave
	finishWithMessage
	finishAbandon
	finishAbandonWithMessage
)

// ProgressFinish is the behavior applied when a bar is finished, either
// explicitly or because its last handle was released while still in
// progress. The zero value is FinishAndClear.
type ProgressFinish struct {
	kind    finishKind
	message string
}

var (
	// FinishAndLeave sets the position to the length and leaves the message.
	FinishAndLeave = ProgressFinish{kind: finishAndLeave}
	// FinishAndClear sets the position to the length and hides the bar.
	FinishAndClear = ProgressFinish{kind: finishAndClear}
	// FinishAbandon keeps the current position and message.
	FinishAbandon = ProgressFinish{kind: finishAbandon}
)

// FinishWithMessage sets the position to the length and replaces the message.
func FinishWithMessage(msg string) ProgressFinish {
	return ProgressFinish{kind: finishWithMessage, message: msg}
}

// FinishAbandonWithMessage keeps the current position and replaces the message.
func FinishAbandonWithMessage(msg string) ProgressFinish {
	return ProgressFinish{kind: finishAbandonWithMessage, message: msg}
}

func (f ProgressFinish) String() string {
	switch f.kind {
	case finishAndLeave:
		return "and_leave"
	case finishWithMessage:
		return fmt.Sprintf("with_message(%q)", f.message)
	case finishAbandon:
		return "abandon"
	case finishAbandonWithMessage:
		return fmt.Sprintf("abandon_with_message(%q)", f.message)
	default:
		return "and_clear"
	}
}

// ParseFinish maps a config name to a ProgressFinish. msg is only used by
// the with_message and abandon_with_message variants.
func ParseFinish(name, msg string) (ProgressFinish, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "and_clear", "clear":
		return FinishAndClear, nil
	case "and_leave", "leave":
		return FinishAndLeave, nil
	case "with_message":
		return FinishWithMessage(msg), nil
	case "abandon":
		return FinishAbandon, nil
	case "abandon_with_message":
		return FinishAbandonWithMessage(msg), nil
	default:
		return ProgressFinish{}, fmt.Errorf("%w: %q", ErrUnknownFinish, name)
	}
}

// Reset selects which parts of a bar's state are reinitialized.
type Reset int

const (
	// ResetEta discards the throughput history.
	ResetEta Reset = iota
	// ResetElapsed restarts the elapsed clock.
	ResetElapsed
	// ResetAll does both, zeroes the position and revives a finished bar.
	ResetAll
)
