package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry so call sites can chain fields directly.
type Logger struct {
	*logrus.Entry
}

// New builds the process logger. Local runs get a readable text format;
// anything else gets JSON for log shipping.
func New() *Logger {
	base := logrus.New()

	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	base.SetOutput(os.Stderr)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// WithStage scopes the logger to one pipeline stage.
func (l *Logger) WithStage(stage string) *logrus.Entry {
	return l.WithField("stage", stage)
}

// WithError standardizes error logging.
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
