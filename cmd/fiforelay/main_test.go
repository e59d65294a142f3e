// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/fiforelay/lib/config"
	"github.com/bureau-foundation/fiforelay/lib/version"
	"github.com/bureau-foundation/fiforelay/relay"
)

func TestRun_Help(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--help"}, &stdout, io.Discard); err != nil {
		t.Fatalf("run --help: %v", err)
	}
	for _, want := range []string{"USAGE", "--host", "--metrics-listen", "<dir>/<host>/out"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--version"}, &stdout, io.Discard); err != nil {
		t.Fatalf("run --version: %v", err)
	}
	output := stdout.String()
	if !strings.HasPrefix(output, "fiforelay "+version.Info()) {
		t.Errorf("version output = %q", output)
	}
	if !strings.Contains(output, "Go: "+runtime.Version()) {
		t.Errorf("version output = %q, missing Go version", output)
	}
}

func TestRun_RejectsBadInput(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")

	tests := map[string][]string{
		"unknown flag":        {"--bogus"},
		"positional args":     {"extra"},
		"missing target":      {"--host", "irc.example.test"},
		"port out of range":   {"--host", "h", "--port", "70000", "--identity", "n", "--dir", "/tmp/irc"},
		"missing config file": {"--config", "/nonexistent/fiforelay.yaml"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if err := run(args, io.Discard, io.Discard); err == nil {
				t.Fatalf("run(%v) succeeded", args)
			}
		})
	}
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "fiforelay.yaml")
	content := `
target:
  hostname: irc.example.test
  port: 6667
  identity: filenick
  base_directory: /tmp/irc
logging:
  format: json
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var values flags
	flagSet := newFlagSet(&values)
	if err := flagSet.Parse([]string{"--config", configPath, "--identity", "flagnick", "-v"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := resolveConfig(flagSet, &values)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Target.Identity != "flagnick" {
		t.Errorf("identity = %q, want flag value", cfg.Target.Identity)
	}
	if cfg.Target.Hostname != "irc.example.test" || cfg.Target.Port != 6667 {
		t.Errorf("target = %+v, want file values for unset flags", cfg.Target)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug from --verbose", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("format = %q, want json from file", cfg.Logging.Format)
	}
}

func TestResolveConfig_EnvironmentVariable(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "fiforelay.toml")
	if err := os.WriteFile(configPath, []byte("[target]\nhostname = \"irc.example.test\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvironmentVariable, configPath)

	var values flags
	flagSet := newFlagSet(&values)
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := resolveConfig(flagSet, &values)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Target.Hostname != "irc.example.test" {
		t.Errorf("hostname = %q, want value from %s", cfg.Target.Hostname, config.EnvironmentVariable)
	}
}

func TestNewLogger(t *testing.T) {
	var buffer bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buffer)

	logger.Info("hidden")
	logger.Warn("shown", "host", "irc.example.test")
	output := buffer.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info record emitted at warn level: %s", output)
	}
	if !strings.Contains(output, `"host":"irc.example.test"`) {
		t.Errorf("expected JSON record, got %s", output)
	}

	if !newLogger(config.LoggingConfig{Level: "debug"}, io.Discard).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
}

func TestServeMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	relay.NewMetrics(registry)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	address, shutdown, err := serveMetrics("127.0.0.1:0", registry, logger)
	if err != nil {
		t.Fatalf("serveMetrics: %v", err)
	}
	defer shutdown()

	response, err := http.Get("http://" + address.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", response.StatusCode)
	}
	if !strings.Contains(string(body), "fiforelay_session_state") {
		t.Errorf("metrics body missing fiforelay_session_state:\n%s", body)
	}

	if _, _, err := serveMetrics("not an address", registry, logger); err == nil {
		t.Error("expected listen error for a bad address")
	}
}
