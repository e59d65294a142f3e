// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for fiforelay.
//
// Configuration is loaded from a single file specified by either the
// FIFORELAY_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search. Files ending in
// .toml are parsed as TOML; everything else as YAML.
//
// The target section ({hostname, port, identity, base_directory}) has
// no defaults: the relay refuses to guess where to connect. [Default]
// only fills in runtime settings (dial timeout, logging).
//
// ${VAR} and ${VAR:-default} patterns in target.base_directory are
// expanded after loading. No other environment variables override
// config values; command-line flags do, in cmd/fiforelay.
//
// This package depends on no other fiforelay packages.
package config
