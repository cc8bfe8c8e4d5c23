package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusAdapter implements Logger using logrus.
type LogrusAdapter struct {
	logger *logrus.Logger
}

// NewLogrusAdapter creates an adapter writing timestamped text output to w
// at the given level.
func NewLogrusAdapter(w io.Writer, level Level) *LogrusAdapter {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrusLevel(level))
	return &LogrusAdapter{logger: l}
}

// NewLogrusAdapterWithLogger creates an adapter wrapping an existing logrus.Logger.
func NewLogrusAdapterWithLogger(logger *logrus.Logger) *LogrusAdapter {
	return &LogrusAdapter{logger: logger}
}

func (a *LogrusAdapter) Debug(msg string, fields ...Field) {
	a.entry(fields).Debug(msg)
}

func (a *LogrusAdapter) Info(msg string, fields ...Field) {
	a.entry(fields).Info(msg)
}

func (a *LogrusAdapter) Warn(msg string, fields ...Field) {
	a.entry(fields).Warn(msg)
}

func (a *LogrusAdapter) Error(msg string, fields ...Field) {
	a.entry(fields).Error(msg)
}

// SetLevel changes the minimum level that is written. logrus guards its
// level atomically, so this is safe while logging.
func (a *LogrusAdapter) SetLevel(level Level) {
	a.logger.SetLevel(logrusLevel(level))
}

// Logger returns the underlying logrus.Logger.
func (a *LogrusAdapter) Logger() *logrus.Logger {
	return a.logger
}

func (a *LogrusAdapter) entry(fields []Field) *logrus.Entry {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			data[logrus.ErrorKey] = err
			continue
		}
		data[f.Key] = f.Value
	}
	return a.logger.WithFields(data)
}

func logrusLevel(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
