// Package logger configures the process-wide logrus logger.
package logger

import (
	"fmt"
	"path"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger with a JSON formatter.
// Unknown levels fall back to info.
func Setup(level string) {
	log.SetReportCaller(true)
	log.SetFormatter(&log.JSONFormatter{
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
		},
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Infof("unknown log level %q, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
		return
	}
	log.SetLevel(parsed)
}

// Component returns a logger entry tagged with the component name.
// All packages log through entries created here so output stays uniform.
func Component(name string) *log.Entry {
	return log.WithField("component", name)
}
