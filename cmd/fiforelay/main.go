// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fiforelay/lib/config"
	"github.com/bureau-foundation/fiforelay/lib/process"
	"github.com/bureau-foundation/fiforelay/lib/version"
	"github.com/bureau-foundation/fiforelay/relay"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		process.Fatal(err)
	}
}

// flags holds the raw command-line values. Only flags the user set
// override the config file.
type flags struct {
	configPath    string
	host          string
	port          int
	identity      string
	directory     string
	dialTimeout   string
	logLevel      string
	logFormat     string
	metricsListen string
	verbose       bool
	showVersion   bool
	help          bool
}

func newFlagSet(values *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("fiforelay", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&values.configPath, "config", "c", "", "config file (.yaml or .toml); default $"+config.EnvironmentVariable)
	flagSet.StringVar(&values.host, "host", "", "remote hostname; also names the pipe directory")
	flagSet.IntVarP(&values.port, "port", "p", 0, "remote TCP port")
	flagSet.StringVarP(&values.identity, "identity", "i", "", "local identity attached to log records")
	flagSet.StringVarP(&values.directory, "dir", "d", "", "base directory for pipe directories")
	flagSet.StringVar(&values.dialTimeout, "dial-timeout", "", "connect timeout, e.g. 30s (0 disables)")
	flagSet.StringVar(&values.logLevel, "log-level", "", "debug, info, warn, or error")
	flagSet.StringVar(&values.logFormat, "log-format", "", "text or json")
	flagSet.StringVar(&values.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")
	flagSet.BoolVarP(&values.verbose, "verbose", "v", false, "shorthand for --log-level=debug")
	flagSet.BoolVar(&values.showVersion, "version", false, "print version and exit")
	flagSet.BoolVarP(&values.help, "help", "h", false, "show help")
	return flagSet
}

func run(args []string, stdout, stderr io.Writer) error {
	var values flags
	flagSet := newFlagSet(&values)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout, flagSet)
			return nil
		}
		return err
	}
	if values.help {
		printUsage(stdout, flagSet)
		return nil
	}
	if values.showVersion {
		fmt.Fprintf(stdout, "fiforelay %s\n", version.Full())
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}

	cfg, err := resolveConfig(flagSet, &values)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	dialTimeout, _ := cfg.DialTimeout()

	logger := newLogger(cfg.Logging, stderr)
	slog.SetDefault(logger)
	logger.Debug("starting", "version", version.Info())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *relay.Metrics
	if cfg.Metrics.Listen != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = relay.NewMetrics(registry)

		_, shutdown, err := serveMetrics(cfg.Metrics.Listen, registry, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	return relay.Run(ctx, relay.Config{
		Target: relay.Target{
			Hostname:      cfg.Target.Hostname,
			Port:          uint16(cfg.Target.Port),
			Identity:      cfg.Target.Identity,
			BaseDirectory: cfg.Target.BaseDirectory,
		},
		Logger:      logger,
		Metrics:     metrics,
		DialTimeout: dialTimeout,
	})
}

// resolveConfig loads the config file named by --config or
// FIFORELAY_CONFIG (if either is set) and applies explicitly set flags
// on top.
func resolveConfig(flagSet *pflag.FlagSet, values *flags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case values.configPath != "":
		cfg, err = config.LoadFile(values.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flagSet.Changed("host") {
		cfg.Target.Hostname = values.host
	}
	if flagSet.Changed("port") {
		cfg.Target.Port = values.port
	}
	if flagSet.Changed("identity") {
		cfg.Target.Identity = values.identity
	}
	if flagSet.Changed("dir") {
		cfg.Target.BaseDirectory = values.directory
	}
	if flagSet.Changed("dial-timeout") {
		cfg.Relay.DialTimeout = values.dialTimeout
	}
	if flagSet.Changed("log-level") {
		cfg.Logging.Level = values.logLevel
	}
	if values.verbose {
		cfg.Logging.Level = "debug"
	}
	if flagSet.Changed("log-format") {
		cfg.Logging.Format = values.logFormat
	}
	if flagSet.Changed("metrics-listen") {
		cfg.Metrics.Listen = values.metricsListen
	}
	return cfg, nil
}

// newLogger builds the process logger. Per-line traffic is logged at
// Debug; the default Info level shows lifecycle events and received
// lines.
func newLogger(logging config.LoggingConfig, output io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: parseLevel(logging.Level)}
	if logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(output, options))
	}
	return slog.New(slog.NewTextHandler(output, options))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// serveMetrics binds address and serves /metrics from registry in the
// background. It returns the bound address and a function that shuts
// the server down.
func serveMetrics(address string, registry *prometheus.Registry, logger *slog.Logger) (net.Addr, func(), error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: failed to listen on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "address", listener.Addr().String())

	return listener.Addr(), func() {
		shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownContext)
		<-done
	}, nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `fiforelay - relay lines between named pipes and a TCP connection

USAGE
    fiforelay [flags]

FLAGS
%s
PIPES
    <dir>/<host>/out   lines written here are sent to host:port
    <dir>/<host>/in    lines received from host:port are written here
                       while a reader has the pipe open

EXAMPLES
    fiforelay --host irc.example.test --port 6667 --identity testnick --dir /tmp/irc
    echo 'PING server' > /tmp/irc/irc.example.test/out

    fiforelay --config /etc/fiforelay.yaml --metrics-listen 127.0.0.1:9464
`, flagSet.FlagUsages())
}
