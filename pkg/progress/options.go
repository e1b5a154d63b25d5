package progress

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a bar at construction.
type Option func(*options)

type options struct {
	target       DrawTarget
	formatter    Formatter
	message      string
	prefix       string
	finish       *ProgressFinish
	logger       *zap.Logger
	tickInterval time.Duration
}

// WithDrawTarget sets where the bar is rendered. Bars are hidden by default.
func WithDrawTarget(target DrawTarget) Option {
	return func(o *options) { o.target = target }
}

func WithFormatter(f Formatter) Option {
	return func(o *options) { o.formatter = f }
}

// WithStyle sets the formatter, message and prefix from style.
func WithStyle(style Style) Option {
	return func(o *options) {
		o.formatter = style.Formatter
		o.message = style.Message
		o.prefix = style.Prefix
	}
}

func WithMessage(msg string) Option {
	return func(o *options) { o.message = msg }
}

func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithFinish sets the behavior applied when the last handle is released
// before the bar was finished.
func WithFinish(finish ProgressFinish) Option {
	return func(o *options) { o.finish = &finish }
}

// WithLogger receives debug logs about swallowed draw failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTickInterval starts a steady ticker right away.
func WithTickInterval(interval time.Duration) Option {
	return func(o *options) { o.tickInterval = interval }
}

func (o *options) apply(b *BarState) {
	if o.target != nil {
		b.drawTarget = o.target
	}
	if o.logger != nil {
		b.logger = o.logger
	}
	if o.finish != nil {
		b.onFinish = *o.finish
	}
	b.style = Style{
		Message:   o.message,
		Prefix:    o.prefix,
		Formatter: o.formatter,
	}
}
