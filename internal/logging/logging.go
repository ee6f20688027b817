// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Setup configures the standard logrus logger from the logging section.
// An empty level means info. When a file is configured, log lines go to
// both stderr and a size-rotated file.
func Setup(cfg types.LoggingConfig) error {
	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("unknown log level %q", cfg.Level)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.File == "" {
		logrus.SetOutput(os.Stderr)
		return nil
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	rotor := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, rotor))
	return nil
}
