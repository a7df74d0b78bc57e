// Package logger wraps the process logger used across the application.
package logger

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

var std = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: true,
	Prefix:          "wetl",
})

// SetLevel adjusts the minimum log level. Unknown values fall back to info.
func SetLevel(level string) {
	parsed, err := charmlog.ParseLevel(level)
	if err != nil {
		parsed = charmlog.InfoLevel
	}
	std.SetLevel(parsed)
}

func Debugf(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	std.Infof(format, v...)
}

func Warnf(format string, v ...interface{}) {
	std.Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	std.Errorf(format, v...)
}
