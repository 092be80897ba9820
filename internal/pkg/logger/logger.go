package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Fields = logrus.Fields

// Logger wraps logrus with variadic key/value logging and service telemetry
// helpers used across all services.
type Logger struct {
	entry *logrus.Entry
}

type LogConfig struct {
	Level    string
	Format   string
	Output   string
	FilePath string
}

func New(cfg LogConfig) (*Logger, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	base.SetLevel(level)

	if cfg.Format == "text" {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	var out io.Writer
	switch cfg.Output {
	case "file":
		out = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}
	base.SetOutput(out)

	return &Logger{entry: logrus.NewEntry(base)}, nil
}

func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Debug(msg)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Info(msg)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Warn(msg)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Error(msg)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Fatal(msg)
}

// LogService records one service operation with its duration and outcome.
func (l *Logger) LogService(service, operation string, duration time.Duration, fields map[string]interface{}, err error) {
	entry := l.entry.WithFields(Fields{
		"service":     service,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}

	if err != nil {
		entry.WithError(err).Error("Service Operation Failed")
		return
	}
	entry.Debug("Service Operation Completed")
}

func pairsToFields(keysAndValues []interface{}) Fields {
	fields := Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
