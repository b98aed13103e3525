// Package main provides the augment command-line tool.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/augment/config"
	"github.com/born-ml/augment/internal/logger"
)

const version = "v0.1.0-dev"

func main() {
	path, args := config.ParseConfigFlag(os.Args[1:])
	if err := config.Init(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// stdout carries command results only.
	stderr := zapcore.Lock(os.Stderr)
	log := logger.NewWriterLogger(config.Config.Log.Debug, stderr, stderr)
	err := run(args, &config.Config, os.Stdout, log)
	if err != nil {
		log.Error("command failed", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}
