// Package log provides the process-wide zap logger.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	mu         sync.RWMutex
	sugar      *zap.SugaredLogger
	baseLogger *zap.Logger
)

// Init initializes the package-level logger. debug selects zap's development
// configuration with debug level enabled.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	SetLogger(zapLogger)
	return nil
}

// SetLogger replaces the package-level logger, e.g. with an observer in tests
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	baseLogger = l
	sugar = l.Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s != nil {
		return s
	}

	// Fallback logger if not initialized
	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	SetLogger(l)
	return l.Sugar()
}

// GetZapLogger returns the base zap logger
func GetZapLogger() *zap.Logger {
	current()
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

// GetSugaredLogger returns the sugared logger instance
func GetSugaredLogger() *zap.SugaredLogger {
	return current()
}

// Named returns a sugared logger for one component
func Named(name string) *zap.SugaredLogger {
	return current().Named(name)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = current().Sync()
}

func Debugf(template string, args ...interface{}) {
	current().Debugf(template, args...)
}

func Info(args ...interface{}) {
	current().Info(args...)
}

func Infof(template string, args ...interface{}) {
	current().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	current().Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	current().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	current().Warnw(msg, keysAndValues...)
}

func Errorf(template string, args ...interface{}) {
	current().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	current().Errorw(msg, keysAndValues...)
}

// Fatalf logs and exits the process
func Fatalf(template string, args ...interface{}) {
	current().Fatalf(template, args...)
}
