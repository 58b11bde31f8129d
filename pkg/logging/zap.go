// Package logging builds the zap logger shared by the HTTP surface and the
// scheduler, and the redaction filter that strips PII from every record.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level       string
	StdoutOnly  bool
	LogPath     string
	Development bool
}

// New builds a zap.Logger writing JSON with the field keys the rest of the
// fleet expects: @timestamp/log.level/message/caller.
func New(cfg Config) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "@timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = "log.level"
	encoderConfig.MessageKey = "message"
	encoderConfig.CallerKey = "caller"

	var writer zapcore.WriteSyncer
	if cfg.StdoutOnly || cfg.LogPath == "" {
		writer = zapcore.AddSync(os.Stdout)
	} else {
		file, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		writer = zapcore.NewMultiWriteSyncer(zapcore.AddSync(file), zapcore.AddSync(os.Stdout))
	}

	level := zapcore.InfoLevel
	if cfg.Level == "DEBUG" {
		level = zapcore.DebugLevel
	} else if cfg.Level == "WARN" {
		level = zapcore.WarnLevel
	} else if cfg.Level == "ERROR" {
		level = zapcore.ErrorLevel
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, nil
}
