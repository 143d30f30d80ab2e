// Package logging builds the zap loggers used by the boxflow commands.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"boxflow/pkg/config"
)

// New builds a logger writing to console (stderr) and, when cfg.File is set,
// to a rotated JSON file. cfg.JSON switches the console encoder to JSON.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.LogConfig, console io.Writer) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}

	format := "console"
	if cfg.JSON {
		format = "json"
	}
	cores := []zapcore.Core{
		zapcore.NewCore(encoder(format), zapcore.Lock(zapcore.AddSync(console)), level),
	}
	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(encoder("json"), zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).Named("boxflow"), nil
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// Sync flushes l, ignoring the errors stderr gives on some platforms.
func Sync(l *zap.Logger) {
	if err := l.Sync(); err != nil && !isStdSyncError(err) {
		fmt.Fprintln(os.Stderr, "boxflow: failed to sync logger:", err)
	}
}

// isStdSyncError reports the errors fsync returns for terminals and pipes.
func isStdSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}
