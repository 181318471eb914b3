// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §6 ("proxy -c <configfile> [-q | -v]") for the flag
// surface and exit codes; accept-loop wiring follows
// internal/connector.Listen + Server.Serve directly. The -q/-v mutual
// exclusion check in run() is grounded on
// _examples/original_source/programs/wanproxy/wanproxy.cc's main(), which
// calls usage() (and exits) when both quiet and verbose are set.

// Command wanops-proxy is the CLI entrypoint: parse flags, load config,
// wire logging and caches, and run the accept loop until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/DaEun2Lee/wanops/internal/config"
	"github.com/DaEun2Lee/wanops/internal/connector"
	"github.com/DaEun2Lee/wanops/internal/logging"
	"github.com/DaEun2Lee/wanops/internal/pipe"
	"github.com/DaEun2Lee/wanops/internal/xcodec"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the testable body of main: it returns an exit code instead of
// calling os.Exit directly. Exit codes match spec.md §6 exactly: 0 on clean
// stop, 1 on configuration failure or unknown CLI argument.
func run(args []string) int {
	flags := pflag.NewFlagSet("wanops-proxy", pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wanops-proxy -c <configfile> [-q | -v]\n")
		flags.PrintDefaults()
	}

	configPath := flags.StringP("config", "c", "", "path to the YAML config file (required)")
	quiet := flags.BoolP("quiet", "q", false, "log errors only")
	verbose := flags.BoolP("verbose", "v", false, "log debug detail")

	if err := flags.Parse(args); err != nil {
		// pflag has already printed the parse error; just set the exit code
		// spec.md §6 requires for an unknown argument.
		return 1
	}

	if *configPath == "" {
		flags.Usage()
		return 1
	}

	if *quiet && *verbose {
		flags.Usage()
		return 1
	}

	cfg, err := config.Configure(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wanops-proxy: %v\n", err)
		return 1
	}

	level := cfg.LoggingLevel()
	if *quiet {
		level = logging.LevelQuiet
	}
	if *verbose {
		level = logging.LevelVerbose
	}

	logger, err := logging.New(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wanops-proxy: logger: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	return serve(cfg, logger)
}

// serve builds the connector and runs it until SIGINT/SIGTERM, matching
// spec.md §6's "0 on clean stop" exit code.
func serve(cfg *config.Config, logger *zap.Logger) int {
	selfUUID, err := cfg.ParsedUUID()
	if err != nil {
		logger.Error("invalid self_uuid", zap.Error(err))
		return 1
	}

	opts := connector.Options{
		Upstream:         cfg.Upstream,
		EncodeUpstream:   cfg.EncodeUpstream,
		EncodeDownstream: cfg.EncodeDownstream,
		SelfUUID:         selfUUID,
		Logger:           logger,
	}
	if cfg.EncodeUpstream || cfg.EncodeDownstream {
		// cache_capacity is in bytes; the cache counts whole segments.
		capacity := cfg.CacheCapacity
		if capacity > 0 {
			capacity /= xcodec.SegmentLen
			if capacity == 0 {
				capacity = 1
			}
		}
		opts.Registry = pipe.NewRegistry(func() (xcodec.Cache, error) {
			return xcodec.NewCache(capacity)
		})
	}

	srv, err := connector.Listen("tcp", cfg.Listen, opts)
	if err != nil {
		logger.Error("listen failed", zap.Error(err), zap.String("addr", cfg.Listen))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("wanops-proxy listening",
		zap.String("addr", cfg.Listen),
		zap.Bool("encode_upstream", cfg.EncodeUpstream),
		zap.Bool("encode_downstream", cfg.EncodeDownstream),
	)

	if err := srv.Serve(ctx); err != nil {
		logger.Error("serve exited with error", zap.Error(err))
		return 1
	}

	logger.Info("wanops-proxy stopped")
	return 0
}
