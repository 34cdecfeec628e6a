// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/perms"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ava-labs/bankvm/config"
)

// newLogger writes human readable logs to stderr and JSON logs to a
// rotated file under [cfg.Directory]. The returned func flushes both.
func newLogger(name string, level logging.Level, cfg config.LogConfig) (logging.Logger, func(), error) {
	if err := os.MkdirAll(cfg.Directory, perms.ReadWriteExecute); err != nil {
		return nil, nil, err
	}
	consoleCore := logging.NewWrappedCore(level, os.Stderr, logging.Colors.ConsoleEncoder())

	rw := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, name+".log"),
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxFiles,
		Compress:   cfg.Compress,
	}
	fileCore := logging.NewWrappedCore(level, rw, logging.JSON.FileEncoder())

	log := logging.NewLogger(name, consoleCore, fileCore)
	return log, func() {
		log.Stop()
		_ = rw.Close()
	}, nil
}
