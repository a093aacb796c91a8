package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	sugared *zap.SugaredLogger
)

func init() {
	if err := Init(os.Getenv("LOG_ENV")); err != nil {
		panic(err)
	}
}

// Init picks the JSON production config for "production" and the console development config otherwise.
func Init(env string) error {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	return Configure(cfg)
}

// Configure replaces the process logger with one built from cfg.
func Configure(cfg zap.Config) error {
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set installs l as the process logger. Tests use it with zap.NewNop or an observer core.
func Set(l *zap.Logger) {
	mu.Lock()
	sugared = l.Sugar()
	mu.Unlock()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

func Info(msg string, keysAndValues ...any) {
	get().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	get().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	get().Errorw(msg, keysAndValues...)
}

func Debug(msg string, keysAndValues ...any) {
	get().Debugw(msg, keysAndValues...)
}

// Fatal logs and exits the process.
func Fatal(msg string, keysAndValues ...any) {
	get().Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered entries; call it before exit.
func Sync() {
	_ = get().Sync()
}
