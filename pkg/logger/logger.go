package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with printf-style helpers used across all services.
type Logger struct {
	log *logrus.Logger
}

func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if os.Getenv("LOG_LEVEL") == "debug" {
		l.SetLevel(logrus.DebugLevel)
	}
	return &Logger{log: l}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

// WithFields returns a logrus entry for structured logging of financial events,
// where the full context (transaction id, wallet id, amounts) must be attached.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.log.WithFields(logrus.Fields(fields))
}
