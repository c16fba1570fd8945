// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/Velatura/sideband/pkg/midiport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports and serial devices",
	Long: `List every MIDI input and output port the system driver can see, plus
available serial devices. Port names from this list (or any unique
substring) work with --input, --output, and --port.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	defer midiport.CloseDriver()

	inputs, outputs := midiport.ListPorts()

	fmt.Printf("MIDI inputs (%d):\n", len(inputs))
	if len(inputs) == 0 {
		fmt.Printf("  (none)\n")
	}
	for i, name := range inputs {
		fmt.Printf("  [%d] %s\n", i, name)
	}

	fmt.Printf("\nMIDI outputs (%d):\n", len(outputs))
	if len(outputs) == 0 {
		fmt.Printf("  (none)\n")
	}
	for i, name := range outputs {
		fmt.Printf("  [%d] %s\n", i, name)
	}

	devices, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("\nSerial devices: unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("\nSerial devices (%d):\n", len(devices))
	if len(devices) == 0 {
		fmt.Printf("  (none)\n")
	}
	for _, dev := range devices {
		fmt.Printf("  %s\n", dev)
	}

	return nil
}
