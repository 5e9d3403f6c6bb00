// Package logging builds the zap logger used across ghclone.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level selects how chatty the logger is
type Level int

const (
	LevelQuiet Level = iota
	LevelNormal
	LevelVerbose
)

// New returns a sugared console logger writing to w (stderr when nil).
// Diagnostics go to stderr so that stdout only carries the cloned path.
func New(w io.Writer, level Level) *zap.SugaredLogger {
	if w == nil {
		w = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	zapLevel := zapcore.InfoLevel
	switch level {
	case LevelQuiet:
		zapLevel = zapcore.ErrorLevel
	case LevelVerbose:
		zapLevel = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(zapLevel),
	)
	return zap.New(core).Sugar()
}

// Nop returns a logger that discards everything
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
