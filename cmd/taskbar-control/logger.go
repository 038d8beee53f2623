package main

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vakulenko-g-o/taskbar-control/internal/config"
)

const loggerName = "TaskbarController"

// initLogger logs to stdout and to the rotating file from the configuration.
func initLogger(cfg *config.Config) *zap.Logger {
	return newLogger(cfg.Logging, os.Stdout)
}

// newLogger builds the tee of a plain-text console core and a JSON file core.
// Console lines read "time - LEVEL - TaskbarController.component - message".
func newLogger(lc config.LoggingConfig, console io.Writer) *zap.Logger {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	textConfig := zap.NewProductionEncoderConfig()
	textConfig.TimeKey = "time"
	textConfig.NameKey = "logger"
	textConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	textConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	textConfig.ConsoleSeparator = " - "

	jsonConfig := zap.NewProductionEncoderConfig()
	jsonConfig.TimeKey = "time"
	jsonConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(textConfig), zapcore.AddSync(console), level),
	}

	// lumberjack creates the directory on first write
	if lc.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...)).Named(loggerName)
}
