// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package process

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new logger configured by the log.* settings.
func NewLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if s := viper.GetString("log.level"); s != "" {
		if err := level.Set(s); err != nil {
			return nil, err
		}
	}

	encoding := viper.GetString("log.encoding")
	if encoding == "" {
		encoding = "console"
	}
	output := viper.GetString("log.output")
	if output == "" {
		output = "stderr"
	}

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       false,
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{output},
	}.Build()
}
