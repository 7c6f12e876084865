package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Level orders log severities
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level  atomic.Int32
	output atomic.Pointer[log.Logger]
)

func init() {
	level.Store(int32(LevelInfo))
	output.Store(log.New(os.Stdout, "", log.Ldate|log.Ltime))
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Init sets the minimum level and, when logDir is set, tees output into a
// daily file under that directory.
func Init(lvl string, logDir string) error {
	level.Store(int32(ParseLevel(lvl)))
	if logDir == "" {
		return nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("maitred_%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// SetOutput redirects all log lines to w.
func SetOutput(w io.Writer) {
	output.Store(log.New(w, "", log.Ldate|log.Ltime))
}

// SetLevel changes the minimum level at runtime.
func SetLevel(l Level) {
	level.Store(int32(l))
}

func logf(l Level, tag string, format string, v ...interface{}) {
	if Level(level.Load()) > l {
		return
	}
	output.Load().Output(3, tag+" "+fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) { logf(LevelDebug, "[DEBUG]", format, v...) }

func Info(format string, v ...interface{}) { logf(LevelInfo, "[INFO]", format, v...) }

func Warn(format string, v ...interface{}) { logf(LevelWarn, "[WARN]", format, v...) }

func Error(format string, v ...interface{}) { logf(LevelError, "[ERROR]", format, v...) }
