package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mx     sync.RWMutex
	global = zap.NewNop().Sugar()
)

// Init replaces the process-wide logger. Level is one of debug, info, warn, error.
func Init(level string, development bool) error {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return err
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	SetLogger(l.Sugar())
	return nil
}

func SetLogger(l *zap.SugaredLogger) {
	mx.Lock()
	defer mx.Unlock()
	global = l
}

func Logger() *zap.SugaredLogger {
	mx.RLock()
	defer mx.RUnlock()
	return global
}

func Sync() {
	_ = Logger().Sync()
}

// WithFields returns a context whose logger carries the given key/value pairs.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(keysAndValues...))
}

func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return Logger()
}

func Debug(ctx context.Context, args ...interface{}) { FromContext(ctx).Debug(args...) }
func Info(ctx context.Context, args ...interface{})  { FromContext(ctx).Info(args...) }
func Warn(ctx context.Context, args ...interface{})  { FromContext(ctx).Warn(args...) }
func Error(ctx context.Context, args ...interface{}) { FromContext(ctx).Error(args...) }
func Fatal(ctx context.Context, args ...interface{}) { FromContext(ctx).Fatal(args...) }

func Debugf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Errorf(format, args...)
}

func Fatalf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Fatalf(format, args...)
}
