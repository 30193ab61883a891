// Package logging holds the shared logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultLogger is the base logger. Packages derive a subsystem logger with
// DefaultLogger.WithField(logfields.LogSubsys, name).
var DefaultLogger = initializeDefaultLogger()

func initializeDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger
}

// Setup configures output, format and verbosity of DefaultLogger.
func Setup(w io.Writer, format string, debug bool) error {
	switch format {
	case "", LogFormatText:
		DefaultLogger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case LogFormatJSON:
		DefaultLogger.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	if w != nil {
		DefaultLogger.SetOutput(w)
	}
	if debug {
		DefaultLogger.SetLevel(logrus.DebugLevel)
	} else {
		DefaultLogger.SetLevel(logrus.WarnLevel)
	}
	return nil
}
