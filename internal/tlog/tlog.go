// Package tlog is a small level-gated logger used for the handful of
// diagnostic call sites in the query bridge and mapping tracker (cache
// activation, eviction, pre-assertion context). It is deliberately not a
// general observability layer.
package tlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = []string{"DEBUG", "INFO", "WARN", "ERROR"}

type Logger struct {
	mu     sync.Mutex
	level  Level
	output *os.File
}

var defaultLogger = &Logger{level: LevelInfo, output: os.Stderr}

// SetLevel adjusts the minimum level the default logger emits.
func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

func Debug(format string, args ...interface{}) { defaultLogger.log(LevelDebug, format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.log(LevelInfo, format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.log(LevelWarn, format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.log(LevelError, format, args...) }

func (l *Logger) log(lvl Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.output, "[%s] [%s] %s\n", ts, levelNames[lvl], msg)
}
