// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §6's "opaque Config.configure(path) -> ok|err" interface,
// given a concrete shape; YAML struct-tag style follows
// yaninyzwitty-hyperpb-go/internal/testdata/testdata.go's use of
// `gopkg.in/yaml.v3`, and the `Default*` constructor follows the teacher's
// own `options.go` (`DefaultCompressOptions`/`DefaultDecompressOptions`).

// Package config loads the YAML file that tells wanops-proxy which role to
// run in, what to listen on, and where its peer lives.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/DaEun2Lee/wanops/internal/logging"
)

// ErrMissingListen is returned when Listen is empty after parsing — every
// role needs something to accept connections on.
var ErrMissingListen = errors.New("config: listen address is required")

// ErrExclusiveRoles is returned when both codec directions are requested at
// once; a single process sits at one end of at most one codec pipe.
var ErrExclusiveRoles = errors.New("config: encode_upstream and encode_downstream are mutually exclusive")

// ErrDownstreamNeedsUpstream is returned when EncodeDownstream is set
// without a pinned Upstream — that role never runs SOCKS, so it has no
// other way to learn its destination.
var ErrDownstreamNeedsUpstream = errors.New("config: encode_downstream requires upstream to be set")

// Config is the parsed shape of a wanops-proxy YAML config file.
type Config struct {
	// Listen is the local "host:port" to accept connections on.
	Listen string `yaml:"listen"`

	// Upstream is the fixed peer or destination address. Required when
	// EncodeDownstream is set; optional otherwise (a plain relay or
	// EncodeUpstream connector falls back to each connection's own SOCKS
	// destination when Upstream is empty).
	Upstream string `yaml:"upstream"`

	// EncodeUpstream marks this process as the sending end of a WAN link:
	// it runs SOCKS, dials Upstream (or the SOCKS destination), and wraps
	// the upstream leg in a codec pipe.
	EncodeUpstream bool `yaml:"encode_upstream"`

	// EncodeDownstream marks this process as the receiving end of a WAN
	// link: the accepted connection itself is the codec wire.
	EncodeDownstream bool `yaml:"encode_downstream"`

	// CacheCapacity bounds the shared XCodec cache, in bytes (spec.md §4.2).
	// It is converted to whole segments, rounded down, with a minimum of one
	// segment when positive. Zero means unbounded.
	CacheCapacity int `yaml:"cache_capacity"`

	// SelfUUID seeds this process's cache identity (spec.md §3 "UUID").
	// Empty means generate one at startup via github.com/google/uuid.
	SelfUUID string `yaml:"self_uuid"`

	// LogLevel sets the default verbosity. One of "quiet", "normal",
	// "verbose". The CLI's -q/-v flags override it when given.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a plain-relay configuration listening on localhost
// with an unbounded cache and a freshly generated UUID.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:1080",
		CacheCapacity: 0,
		SelfUUID:      uuid.NewString(),
		LogLevel:      "normal",
	}
}

// Configure reads and validates the YAML file at path, matching spec.md
// §6's Config.configure(path) -> ok|err operation. A missing or malformed
// file, or a config that fails validation, is a configuration error
// (spec.md §7.6): fatal at startup.
func Configure(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return ErrMissingListen
	}
	if c.EncodeUpstream && c.EncodeDownstream {
		return ErrExclusiveRoles
	}
	if c.EncodeDownstream && c.Upstream == "" {
		return ErrDownstreamNeedsUpstream
	}
	if c.SelfUUID == "" {
		c.SelfUUID = uuid.NewString()
	}
	if _, err := uuid.Parse(c.SelfUUID); err != nil {
		return fmt.Errorf("config: self_uuid: %w", err)
	}
	return nil
}

// ParsedUUID decodes SelfUUID into the fixed-width form pipe.NewPipe and
// connector.Options expect.
func (c *Config) ParsedUUID() ([16]byte, error) {
	var out [16]byte
	id, err := uuid.Parse(c.SelfUUID)
	if err != nil {
		return out, err
	}
	copy(out[:], id[:])
	return out, nil
}

// LoggingLevel maps LogLevel to the logging package's Level enum, falling
// back to LevelNormal for an empty or unrecognized value.
func (c *Config) LoggingLevel() logging.Level {
	switch c.LogLevel {
	case "quiet":
		return logging.LevelQuiet
	case "verbose":
		return logging.LevelVerbose
	default:
		return logging.LevelNormal
	}
}
