// Package logging builds the application's zap logger: a console core on
// stderr for warnings and a JSON core written to a daily-rotated file under
// the data directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// DataDir receives logs/dailies.YYYYMMDD.log when File is set.
	DataDir string
	File    bool
	Level   string
	MaxAge  time.Duration

	// Console is where human-readable output goes; defaults to stderr.
	Console io.Writer
	// ConsoleLevel is the minimum level shown on the console. Debug mode
	// lowers it to the file level.
	ConsoleLevel zapcore.Level
	Debug        bool
}

// ParseLevel maps a config level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// New returns the logger and a function that flushes it.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	consoleConfig := encoderConfig
	consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleLevel := opts.ConsoleLevel
	if opts.Debug {
		consoleLevel = level
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(console), max(level, consoleLevel)),
	}

	var rotator io.Closer
	if opts.File && opts.DataDir != "" {
		w, err := newRotator(filepath.Join(opts.DataDir, "logs"), opts.MaxAge)
		if err != nil {
			// File logging is optional; keep going with the console only.
			fmt.Fprintf(console, "warning: file logging disabled: %v\n", err)
		} else {
			rotator = w
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), level))
		}
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	closeFn := func() {
		_ = logger.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return logger, closeFn, nil
}

func newRotator(dir string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if maxAge <= 0 {
		maxAge = 14 * 24 * time.Hour
	}
	return rotatelogs.New(
		filepath.Join(dir, "dailies.%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, "dailies.log")),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(maxAge),
	)
}
