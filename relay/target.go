// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"net"
	"strconv"
)

// Target identifies the remote endpoint and the local pipe location for
// one session. The pipes live at BaseDirectory/Hostname/{in,out}.
type Target struct {
	// Hostname is the remote host, resolved at connect time. It also
	// names the pipe directory.
	Hostname string

	// Port is the remote TCP port.
	Port uint16

	// Identity names the local user of the relay. It is attached to log
	// records; the relay does not send it anywhere.
	Identity string

	// BaseDirectory is the directory under which the per-host pipe
	// directory is created.
	BaseDirectory string
}

// Address returns the dial address "hostname:port".
func (t Target) Address() string {
	return net.JoinHostPort(t.Hostname, strconv.Itoa(int(t.Port)))
}

// Validate checks that every field is set.
func (t Target) Validate() error {
	var errs []error
	if t.Hostname == "" {
		errs = append(errs, errors.New("relay: target hostname is required"))
	}
	if t.Port == 0 {
		errs = append(errs, errors.New("relay: target port is required"))
	}
	if t.Identity == "" {
		errs = append(errs, errors.New("relay: target identity is required"))
	}
	if t.BaseDirectory == "" {
		errs = append(errs, errors.New("relay: target base directory is required"))
	}
	return errors.Join(errs...)
}
