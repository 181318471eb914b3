// SPDX-License-Identifier: GPL-2.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DaEun2Lee/wanops/internal/logging"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "wanops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigurePlainRelay(t *testing.T) {
	path := writeConfig(t, "listen: 127.0.0.1:1080\n")
	cfg, err := Configure(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:1080", cfg.Listen)
	require.False(t, cfg.EncodeUpstream)
	require.False(t, cfg.EncodeDownstream)
	require.NotEmpty(t, cfg.SelfUUID, "validate must fill in a generated UUID")
}

func TestConfigureEncodeDownstreamRequiresUpstream(t *testing.T) {
	path := writeConfig(t, "listen: 127.0.0.1:9000\nencode_downstream: true\n")
	_, err := Configure(path)
	require.ErrorIs(t, err, ErrDownstreamNeedsUpstream)
}

func TestConfigureExclusiveRoles(t *testing.T) {
	path := writeConfig(t, "listen: 127.0.0.1:9000\nupstream: 127.0.0.1:9001\nencode_upstream: true\nencode_downstream: true\n")
	_, err := Configure(path)
	require.ErrorIs(t, err, ErrExclusiveRoles)
}

func TestConfigureMissingListen(t *testing.T) {
	path := writeConfig(t, "upstream: 127.0.0.1:9001\n")
	_, err := Configure(path)
	require.ErrorIs(t, err, ErrMissingListen)
}

func TestConfigureMissingFile(t *testing.T) {
	_, err := Configure(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestConfigureInvalidUUID(t *testing.T) {
	path := writeConfig(t, "listen: 127.0.0.1:9000\nself_uuid: not-a-uuid\n")
	_, err := Configure(path)
	require.Error(t, err)
}

func TestParsedUUIDRoundTrips(t *testing.T) {
	path := writeConfig(t, "listen: 127.0.0.1:9000\nself_uuid: 01020304-0506-0708-090a-0b0c0d0e0f10\n")
	cfg, err := Configure(path)
	require.NoError(t, err)
	id, err := cfg.ParsedUUID()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), id[0])
	require.Equal(t, byte(0x10), id[15])
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NotEmpty(t, cfg.Listen)
	require.NoError(t, cfg.validate())
}

func TestLoggingLevelMapping(t *testing.T) {
	cfg := &Config{LogLevel: "quiet"}
	require.Equal(t, logging.LevelQuiet, cfg.LoggingLevel())
	cfg.LogLevel = "verbose"
	require.Equal(t, logging.LevelVerbose, cfg.LoggingLevel())
	cfg.LogLevel = ""
	require.Equal(t, logging.LevelNormal, cfg.LoggingLevel())
}
