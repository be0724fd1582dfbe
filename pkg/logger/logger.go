// Package logger provides the engine's structured logging facade, backed
// by zap. The default logger writes human-readable output to stderr at
// Info level; Init reconfigures it from engine configuration.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	Level string `yaml:"level" mapstructure:"level"`

	// Format selects the encoder: "console" (human-readable) or "json".
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	log   = mustBuild(DefaultConfig())
)

// Init rebuilds the global logger from the given configuration.
func Init(cfg Config) error {
	SetLevelFromString(cfg.Level)

	built, err := build(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = built
	return nil
}

// SetLevelFromString sets the log level by name. Unknown names fall back
// to Info.
func SetLevelFromString(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "info":
		level.SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// EnableDebug switches the global logger to debug level.
func EnableDebug() {
	level.SetLevel(zapcore.DebugLevel)
}

// IsDebugEnabled reports whether debug logging is active.
func IsDebugEnabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// Debug logs a printf-style message at debug level.
func Debug(format string, args ...any) {
	log.Debugf(format, args...)
}

// Info logs a printf-style message at info level.
func Info(format string, args ...any) {
	log.Infof(format, args...)
}

// Warn logs a printf-style message at warn level.
func Warn(format string, args ...any) {
	log.Warnf(format, args...)
}

// Error logs a printf-style message at error level.
func Error(format string, args ...any) {
	log.Errorf(format, args...)
}

// With returns a sugared logger carrying the given structured fields, for
// call sites that want key/value context instead of printf formatting.
func With(kv ...any) *zap.SugaredLogger {
	return log.With(kv...)
}

// Sync flushes buffered log entries.
func Sync() error {
	return log.Sync()
}

func build(cfg Config) (*zap.SugaredLogger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	if strings.ToLower(cfg.Format) != "json" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	built, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return built.Sugar(), nil
}

func mustBuild(cfg Config) *zap.SugaredLogger {
	built, err := build(cfg)
	if err != nil {
		panic("logger: " + err.Error())
	}
	return built
}
