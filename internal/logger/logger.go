// Package logger provides structured logging for CHRONOS's non-hot-path
// components (snapshotting and the replay driver). The matching
// hot path (MatchingEngine.MatchOrder, OrderBook.*, the scanners) never
// imports this package: spec.md forbids allocation and non-deterministic
// I/O on that path, and logging is both.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel mirrors the DEBUG..ERROR ladder used across the project so
// callers don't need to reach for zap's own level type.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger wraps a zap.SugaredLogger behind the Debug/Info/Warn/Error surface
// the rest of the codebase expects, with an adjustable minimum level so a
// single process can run quiet in production and verbose at DEBUG.
type Logger struct {
	mu    sync.RWMutex
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger instance writing JSON lines to stdout at or
// above minLevel.
func NewLogger(minLevel LogLevel) *Logger {
	atom := zap.NewAtomicLevelAt(minLevel.zapLevel())

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		atom,
	)

	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{
		level: atom,
		sugar: base.Sugar(),
	}
}

func toArgs(context map[string]interface{}) []interface{} {
	if len(context) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(context)*2)
	for k, v := range context {
		args = append(args, k, v)
	}
	return args
}

func firstOrEmpty(context []map[string]interface{}) map[string]interface{} {
	if len(context) > 0 {
		return context[0]
	}
	return nil
}

func (l *Logger) Debug(message string, context ...map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.sugar.Debugw(message, toArgs(firstOrEmpty(context))...)
}

func (l *Logger) Info(message string, context ...map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.sugar.Infow(message, toArgs(firstOrEmpty(context))...)
}

func (l *Logger) Warn(message string, context ...map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.sugar.Warnw(message, toArgs(firstOrEmpty(context))...)
}

func (l *Logger) Error(message string, context ...map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.sugar.Errorw(message, toArgs(firstOrEmpty(context))...)
}

// SetMinLevel adjusts the logger's minimum level at runtime.
func (l *Logger) SetMinLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Package-level convenience functions using a default logger, matching the
// ergonomics callers in cmd/chronosd and internal/snapshot already expect.
var defaultLogger = NewLogger(INFO)

func Debug(message string, context ...map[string]interface{}) {
	defaultLogger.Debug(message, context...)
}

func Info(message string, context ...map[string]interface{}) {
	defaultLogger.Info(message, context...)
}

func Warn(message string, context ...map[string]interface{}) {
	defaultLogger.Warn(message, context...)
}

func Error(message string, context ...map[string]interface{}) {
	defaultLogger.Error(message, context...)
}

// SetMinLevel sets the minimum log level for the default logger.
func SetMinLevel(level LogLevel) {
	defaultLogger.SetMinLevel(level)
}
