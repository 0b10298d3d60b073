package ui

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	Debug bool
	s     *zap.SugaredLogger
}

func NewLogger(debug bool) *Logger {
	return NewLoggerTo(os.Stdout, debug)
}

// NewLoggerTo writes level-tagged console lines to w.
func NewLoggerTo(w io.Writer, debug bool) *Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      bracketLevel,
		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)

	return &Logger{Debug: debug, s: zap.New(core).Sugar()}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func (l *Logger) Debugf(format string, args ...any) {
	l.s.Debugf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.s.Infof(strings.TrimSuffix(format, "\n"), args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.s.Warnf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.s.Errorf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *Logger) Sync() {
	_ = l.s.Sync()
}
