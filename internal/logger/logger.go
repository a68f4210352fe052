package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "hh-matcher"

var stderr = []string{"stderr"}

// New builds the process logger. Console encoding with colored levels unless
// json is set; debug lowers the level and turns on callers and stack traces.
func New(json bool, debug bool) (*zap.Logger, error) {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	enc.EncodeLevel = zapcore.LowercaseColorLevelEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Encoding:          "console",
		EncoderConfig:     enc,
		OutputPaths:       stderr,
		ErrorOutputPaths:  stderr,
		DisableCaller:     !debug,
		DisableStacktrace: !debug,
	}

	if json {
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	}
	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}

	return cfg.Build(zap.Fields(zap.String("app", appName)))
}
