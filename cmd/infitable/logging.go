package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	gormlogger "gorm.io/gorm/logger"
)

// newLogger builds the process logger. The terminal belongs to the table,
// so records go to path or are discarded when path is empty.
func newLogger(path string, verbose bool) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

// newGormLogger routes gorm's SQL log through logger. SQL statements are
// only traced when verbose.
func newGormLogger(logger *slog.Logger, verbose bool) gormlogger.Interface {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}

	return gormlogger.New(slog.NewLogLogger(logger.Handler(), slog.LevelDebug), gormlogger.Config{
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
