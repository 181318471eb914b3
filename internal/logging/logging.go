// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §6's `-q`/`-v` CLI flags and §7's error-kind levels;
// wiring style (a small Level enum built into a zap.Config) follows the
// `go.uber.org/zap` usage pattern common across the retrieval pack rather
// than any single teacher file, since the teacher (a compression codec) has
// no logging of its own.

// Package logging wires go.uber.org/zap behind the three verbosity levels
// the wanops-proxy CLI exposes.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level selects verbosity, one notch per CLI flag in spec.md §6.
type Level int

const (
	// LevelNormal is the default: info and above.
	LevelNormal Level = iota
	// LevelQuiet is -q: error and above only.
	LevelQuiet
	// LevelVerbose is -v: debug and above.
	LevelVerbose
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelQuiet:
		return zapcore.ErrorLevel
	case LevelVerbose:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a production-style JSON logger at the given level. Callers
// should defer logger.Sync() once the process is ready to exit.
func New(level Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Names for the §7 error kinds, for use as a logger "kind" field so a
// downstream consumer can filter on it without parsing the message text.
// No log call in this module attaches them.
const (
	KindTransientIO    = "transient_io"
	KindPeerEOS        = "peer_eos"
	KindPeerReset      = "peer_reset"
	KindProtocolError  = "protocol_error"
	KindCacheCollision = "cache_collision"
	KindConfigError    = "config_error"
)

// NameReuseMessage is the message text for an EXTRACT/cache-collision
// replace, matching spec.md §4.4/§9's exact wording. xcodec.Decoder reports
// collisions only through its OnCollision hook; no component in this module
// sets that hook, so collisions are replaced without being logged.
const NameReuseMessage = "name reuse"
