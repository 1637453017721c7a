// Package logging builds the zap logger shared by the CLI and handed to the
// loader, engine and report writers.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w. Verbose enables debug records
// and caller annotations; otherwise only info and above are emitted.
func New(verbose bool, w io.Writer) *zap.Logger {
	var cfg zapcore.EncoderConfig
	level := zap.InfoLevel
	if verbose {
		cfg = zap.NewDevelopmentEncoderConfig()
		level = zap.DebugLevel
	} else {
		cfg = zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
	opts := []zap.Option{}
	if verbose {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...)
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
