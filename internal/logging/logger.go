package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance
var Logger *zap.Logger

// ------------------------------------------------------------------------------------------------------
// New builds a JSON production logger at the given level ("debug", "info", "warn", "error").
// An empty level means info.
func New(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.CallerKey = "caller"
	config.InitialFields = map[string]any{"service": "mpp-chat-portal"}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	return config.Build()
}

// ------------------------------------------------------------------------------------------------------
// Init builds the global logger and redirects zap's globals to it
func Init(level string) error {
	logger, err := New(level)
	if err != nil {
		return err
	}
	Logger = logger
	zap.ReplaceGlobals(logger)
	return nil
}

// ------------------------------------------------------------------------------------------------------
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
