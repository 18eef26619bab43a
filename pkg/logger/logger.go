// Package logger provides the project-wide structured logger.
//
// Call sites use the component-field helpers (InfoCF, WarnCF, ErrorCF) so
// every line carries the subsystem that emitted it. The backend is zap; the
// default logger is a nop so library consumers and tests stay quiet unless
// they call Init.
package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	std = zap.NewNop()
)

// Options controls logger initialization.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// Format is "json" or "console". Defaults to "console".
	Format string
}

// Init replaces the global logger. Safe to call more than once; the last
// call wins. Intended for binaries, not libraries.
func Init(opts Options) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	format := opts.Format
	if format == "" {
		format = "console"
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	core, err := cfg.Build()
	if err != nil {
		return
	}

	mu.Lock()
	std = core
	mu.Unlock()
}

// SetLogger swaps in a custom zap logger. Used by tests to capture output.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	std = l
	mu.Unlock()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = std.Sync()
}

// DebugCF logs at debug level with a component tag and structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.DebugLevel, component, msg, fields)
}

// InfoCF logs at info level with a component tag and structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.InfoLevel, component, msg, fields)
}

// WarnCF logs at warn level with a component tag and structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.WarnLevel, component, msg, fields)
}

// ErrorCF logs at error level with a component tag and structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	log(zapcore.ErrorLevel, component, msg, fields)
}

func log(level zapcore.Level, component, msg string, fields map[string]interface{}) {
	mu.RLock()
	l := std
	mu.RUnlock()

	if !l.Core().Enabled(level) {
		return
	}

	zfields := make([]zap.Field, 0, len(fields)+1)
	zfields = append(zfields, zap.String("component", component))

	// Deterministic field order keeps console output and tests stable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zfields = append(zfields, zap.Any(k, fields[k]))
	}

	switch level {
	case zapcore.DebugLevel:
		l.Debug(msg, zfields...)
	case zapcore.InfoLevel:
		l.Info(msg, zfields...)
	case zapcore.WarnLevel:
		l.Warn(msg, zfields...)
	default:
		l.Error(msg, zfields...)
	}
}
