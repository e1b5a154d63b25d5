// Package logging builds the zap loggers used by gauge.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/andrearaponi/gauge/pkg/progress"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a development-style logger appending to the file at path.
// An empty path yields a no-op logger so nothing writes over a live bar.
func New(level, path string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	if path == "" {
		return zap.NewNop(), nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(file),
		zapLevel,
	)

	return zap.New(core, zap.AddCaller(), zap.Development()), nil
}

// ThroughBar creates a logger whose entries are printed above pb.
//
// The returned logger must not be handed to the bar itself through
// progress.WithLogger: the bar logs while holding its lock and Println
// takes the same lock.
func ThroughBar(pb *progress.ProgressBar, level string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.CallerKey = zapcore.OmitKey

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(barWriter{pb: pb}),
		zapLevel,
	)

	return zap.New(core), nil
}

type barWriter struct {
	pb *progress.ProgressBar
}

// Write receives one encoded entry per call.
func (w barWriter) Write(p []byte) (int, error) {
	w.pb.Println(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
