// Package logger builds the application logger.  It is the same gommon
// logger echo uses internally, so request logs, handler logs (c.Logger())
// and background workers share one format and level.
package logger

import (
	"io"
	"strings"

	"github.com/labstack/gommon/log"
)

// Logger is the subset of the gommon logger the services depend on.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const header = `{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`

// New returns a JSON-line logger with the given prefix and level name.
func New(prefix, level string) *log.Logger {
	l := log.New(prefix)
	l.SetHeader(header)
	l.SetLevel(ParseLevel(level))
	return l
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// ParseLevel maps a level name to a gommon level.  Unknown names mean INFO.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
