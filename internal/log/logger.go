package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"csvsync/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug = false
	logger  = NewLogger()
)

// Field is a single structured key/value attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger writes human readable or JSON log lines through logrus.
type Logger struct {
	base   *logrus.Logger
	file   *os.File
	fields logrus.Fields
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput sends log lines to w.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.base.SetOutput(w)
	}
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(l *Logger) {
		l.base.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyTime: "timestamp",
			},
		})
	}
}

// WithTimestamps prefixes text lines with the local time.
func WithTimestamps() Option {
	return func(l *Logger) {
		if pf, ok := l.base.Formatter.(*plainFormatter); ok {
			pf.timestamps = true
		}
	}
}

// WithLevel sets the minimum level that is written.
func WithLevel(level logrus.Level) Option {
	return func(l *Logger) {
		l.base.SetLevel(level)
	}
}

// WithFile appends log lines to path in addition to the current output.
func WithFile(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(l.base.Out, "Warning: unable to open log file %s: %v\n", path, err)
			return
		}
		l.file = f
		l.base.SetOutput(io.MultiWriter(l.base.Out, f))
	}
}

// NewLogger creates a logger writing plain text to stderr at info level.
func NewLogger(opts ...Option) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&plainFormatter{})
	base.SetLevel(logrus.InfoLevel)

	l := &Logger{base: base, fields: logrus.Fields{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Logrus exposes the underlying logger, mainly so tests can attach hooks.
func (l *Logger) Logrus() *logrus.Logger {
	return l.base
}

// Close releases the log file opened by WithFile, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// With returns a child logger carrying the given fields on every line.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return &Logger{base: l.base, file: l.file, fields: merged}
}

func (l *Logger) entry() *logrus.Entry {
	return l.base.WithFields(l.fields)
}

func (l *Logger) Debug(msg string)                          { l.entry().Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry().Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.entry().Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry().Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.entry().Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry().Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.entry().Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry().Errorf(format, args...) }

// Configure replaces the package level logger.
func Configure(opts ...Option) {
	previous := logger
	logger = NewLogger(opts...)
	if isDebug {
		logger.base.SetLevel(logrus.DebugLevel)
	}
	_ = previous.Close()
}

// Default returns the package level logger.
func Default() *Logger {
	return logger
}

// SetDebug toggles debug output on the package level logger.
func SetDebug(debug bool) {
	isDebug = debug
	if debug {
		logger.base.SetLevel(logrus.DebugLevel)
	} else {
		logger.base.SetLevel(logrus.InfoLevel)
	}
}

func Debug(msg string)                          { logger.Debug(msg) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Info(msg string)                           { logger.Info(msg) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warn(msg string)                           { logger.Warn(msg) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(msg string)                          { logger.Error(msg) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }

// LogWithFields returns the package logger decorated with fields.
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithError returns the package logger decorated with err and the
// context carried by csvsync error types.
func LogWithError(err error) *Logger {
	if err == nil {
		return logger.With(F("error", "<nil>"))
	}

	fields := []Field{
		F("error", err.Error()),
		F("error_kind", errors.KindOf(err).String()),
	}

	var manifestErr *errors.ManifestError
	var fileErr *errors.FileError
	var configErr *errors.ConfigError
	switch {
	case errors.As(err, &manifestErr):
		fields = append(fields, F("path", manifestErr.Path()))
		if manifestErr.Line() > 0 {
			fields = append(fields, F("line", manifestErr.Line()))
		}
	case errors.As(err, &fileErr):
		fields = append(fields, F("path", fileErr.Path()))
	case errors.As(err, &configErr):
		fields = append(fields, F("param", configErr.Param()))
	}

	return logger.With(fields...)
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}

// plainFormatter renders "Warning: message key=value" lines.
type plainFormatter struct {
	timestamps bool
}

func (f *plainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	if f.timestamps {
		fmt.Fprintf(&b, "[%s] ", entry.Time.Format("2006-01-02 15:04:05"))
	}
	b.WriteString(levelLabel(entry.Level))
	b.WriteString(": ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelLabel(level logrus.Level) string {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return "Debug"
	case logrus.InfoLevel:
		return "Info"
	case logrus.WarnLevel:
		return "Warning"
	default:
		return "Error"
	}
}
