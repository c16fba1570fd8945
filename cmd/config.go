// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
)

// fileConfig is the sideband.toml schema. Every key is optional; defined
// keys fill in flags the user did not set on the command line.
type fileConfig struct {
	Input       string `toml:"input"`
	Output      string `toml:"output"`
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
	CC          int    `toml:"cc"`
	Channel     int    `toml:"channel"`
	Role        string `toml:"role"`
	LogLevel    string `toml:"log_level"`
	LogJSON     bool   `toml:"log_json"`
}

// pinnedRole holds the role fixed by the config file, if any.
var pinnedRole string

// applyConfig loads the config file and merges it under the flags:
// command line wins, config fills the rest. Without --config, a
// sideband.toml in the working directory is used when present.
func applyConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		if _, err := os.Stat("sideband.toml"); err != nil {
			return nil
		}
		path = "sideband.toml"
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	flags := cmd.Flags()

	if meta.IsDefined("input") && !flags.Changed("input") {
		inputName = raw.Input
	}
	if meta.IsDefined("output") && !flags.Changed("output") {
		outputName = raw.Output
	}
	if meta.IsDefined("port") && !flags.Changed("port") {
		portName = raw.Port
	}
	if meta.IsDefined("baud") && !flags.Changed("baud") {
		baudRate = raw.Baud
	}
	if meta.IsDefined("url") && !flags.Changed("url") {
		wsURL = raw.URL
	}
	if meta.IsDefined("username") && !flags.Changed("username") {
		wsUsername = raw.Username
	}
	if meta.IsDefined("no_ssl_verify") && !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = raw.NoSSLVerify
	}
	if meta.IsDefined("cc") && !flags.Changed("cc") {
		ccNumber = raw.CC
	}
	if meta.IsDefined("channel") && !flags.Changed("channel") {
		midiChannel = raw.Channel
	}
	if meta.IsDefined("log_level") && !flags.Changed("log-level") {
		logLevel = raw.LogLevel
	}
	if meta.IsDefined("log_json") && !flags.Changed("log-json") {
		logJSON = raw.LogJSON
	}

	if meta.IsDefined("role") {
		role := strings.ToLower(strings.TrimSpace(raw.Role))
		switch role {
		case "", "receiver", "transmitter":
			pinnedRole = role
		default:
			return fmt.Errorf("config %s: role must be \"receiver\" or \"transmitter\", got %q", path, raw.Role)
		}
	}

	return nil
}

// requireRole refuses to run a command whose role contradicts a role
// pinned in the config file. A process is one role for its lifetime.
func requireRole(want cantus.Role) error {
	if pinnedRole == "" {
		return nil
	}
	name := "receiver"
	if want == cantus.RoleTransmitter {
		name = "transmitter"
	}
	if pinnedRole != name {
		return fmt.Errorf("config pins role to %q, refusing to run as %s", pinnedRole, name)
	}
	return nil
}
