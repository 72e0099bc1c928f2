// Package log wraps a single process-wide sugared zap logger. The
// level can be changed at runtime via SetLevel.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() {
	enc := zapcore.EncoderConfig{
		TimeKey:       "time",
		LevelKey:      "level",
		MessageKey:    "msg",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339TimeEncoder,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stdout), level)
	Logger = zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zap.ErrorLevel),
	).Sugar()
}

// SetLevel parses a zap level name ("debug", "info", ...) and applies
// it. Unknown names leave the level unchanged.
func SetLevel(name string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return
	}
	level.SetLevel(lvl)
}

func Debugf(template string, args ...interface{}) { Logger.Debugf(template, args...) }
func Infof(template string, args ...interface{})  { Logger.Infof(template, args...) }
func Warnf(template string, args ...interface{})  { Logger.Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { Logger.Errorf(template, args...) }
