// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/spf13/cobra"
)

var (
	// MIDI port flags
	inputName  string
	outputName string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Protocol flags
	ccNumber    int
	midiChannel int

	// Config and logging flags
	configPath string
	logLevel   string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "sideband",
	Short: "MIDI musical-context sideband toolkit",
	Long: `Sideband - A CLI tool for sending, receiving, and monitoring musical-context
packets carried as Control Change events inside a MIDI stream.

Key, scale, and chord information is framed between START (value 127) and
STOP (value 0) sentinels on a reserved controller number. Ordinary MIDI
traffic passes through untouched.

Input/output modes:
  MIDI port: --input "Port Name" / --output "Port Name"
  Serial:    --port /dev/ttyUSB0 [--baud 31250]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the SIDEBAND_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.2.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConfig(cmd); err != nil {
			return err
		}
		initLogging()
		if ccNumber < 0 || ccNumber > 127 {
			return fmt.Errorf("--cc must be 0-127, got %d", ccNumber)
		}
		if midiChannel < 0 || midiChannel > 16 {
			return fmt.Errorf("--channel must be 1-16, or 0 for all channels")
		}
		return nil
	},
}

func init() {
	// MIDI port flags
	rootCmd.PersistentFlags().StringVarP(&inputName, "input", "i", "", "MIDI input port (name or substring)")
	rootCmd.PersistentFlags().StringVarP(&outputName, "output", "o", "", "MIDI output port (name or substring)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 31250, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Protocol flags
	rootCmd.PersistentFlags().IntVar(&ccNumber, "cc", cantus.DefaultControlNumber, "Reserved controller number for sideband data")
	rootCmd.PersistentFlags().IntVar(&midiChannel, "channel", 0, "MIDI channel 1-16 (0 = all channels on receive, channel 1 on send)")

	// Config and logging flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default sideband.toml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default info, or SIDEBAND_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON instead of console format")
}

// controlNumber returns the reserved controller number as the wire type.
func controlNumber() uint8 {
	return uint8(ccNumber)
}

// wireChannel maps the human 1-16 channel flag to the 0-15 wire value,
// treating 0 (all channels) as channel 1 for transmit paths.
func wireChannel() uint8 {
	if midiChannel <= 0 {
		return 0
	}
	return uint8(midiChannel - 1)
}

// newReceiver builds a receiver from the shared flags.
func newReceiver() *cantus.Receiver {
	r := cantus.NewReceiver(controlNumber())
	if midiChannel > 0 {
		r.SetChannel(uint8(midiChannel - 1))
	}
	return r
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
