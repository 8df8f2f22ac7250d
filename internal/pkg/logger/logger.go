// Package logger wraps zap behind the small interface the services log through.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	With(fields ...zap.Field) ZapLogger
	Sync() error
}

type ZapLoggerConfig struct {
	IsDevelopment     bool
	Encoding          string // "json" or "console"
	Level             string
	DisableCaller     bool
	DisableStacktrace bool
}

type zapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a logger from cfg. A config zap refuses to build falls
// back to zap's production defaults so callers always get a usable logger.
func NewZapLogger(cfg *ZapLoggerConfig) ZapLogger {
	zapCfg := zap.NewProductionConfig()
	if cfg.IsDevelopment {
		zapCfg = zap.NewDevelopmentConfig()
	}

	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.DisableCaller = cfg.DisableCaller
	zapCfg.DisableStacktrace = cfg.DisableStacktrace

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z, _ = zap.NewProduction(zap.AddCallerSkip(1))
	}

	return &zapLogger{logger: z}
}

// NewNop returns a logger that discards everything.
func NewNop() ZapLogger {
	return &zapLogger{logger: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.logger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.logger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.logger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.logger.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...zap.Field) { l.logger.Fatal(msg, fields...) }

func (l *zapLogger) With(fields ...zap.Field) ZapLogger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}
