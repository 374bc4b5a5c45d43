package logger

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
	once         sync.Once
)

// GetLogger returns the process-wide logger. Only entrypoints should call
// this; library code receives its logger through constructors.
func GetLogger() *Logger {
	once.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		if globalLogger != nil {
			return
		}

		defaultLevel := "info"
		if os.Getenv("DEBUG") == "true" {
			defaultLevel = "debug"
		} else if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
			defaultLevel = lvl
		}

		globalLogger = New(Config{
			Level:  defaultLevel,
			Format: "json",
			Output: "stdout",
		})
	})

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger sets the global logger instance
func SetLogger(logger *Logger) {
	once.Do(func() {})
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
	SetGlobalLogger(logger)
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return NewNop()
	}
	return l
}
