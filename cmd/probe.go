// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/midiport"
)

var probeTimeout int

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the input by waiting for a valid sideband packet",
	Long: `Wait for a complete, valid sideband packet on the input until timeout.

Ordinary MIDI traffic and malformed sideband data are ignored; the probe
succeeds on the first packet that decodes cleanly.

Exit codes:
  0 - Packet received before timeout
  1 - Timeout reached without receiving a valid packet
  2 - Connection error

Useful for checking that a transmitter upstream is alive and that the
controller number and channel are configured to match it.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a packet")
}

func runProbe(cmd *cobra.Command, args []string) error {
	if err := requireRole(cantus.RoleReceiver); err != nil {
		return err
	}

	rx := newReceiver()

	// Channel for packet reception. The skipped count rides along so the
	// main goroutine never touches the callback's counter.
	type result struct {
		pkt     *cantus.Packet
		skipped int
	}
	packetChan := make(chan result, 1)
	errorsSeen := 0

	stop, _, info, err := startEventStream(func(ev cantus.Event) {
		pkt, _, err := rx.HandleEvent(ev)
		if err != nil {
			// Ignore protocol errors, just count them
			errorsSeen++
			return
		}
		if pkt != nil {
			select {
			case packetChan <- result{pkt: pkt, skipped: errorsSeen}:
			default:
			}
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer stop()
	defer midiport.CloseDriver()

	fmt.Printf("Sideband - Probe\n")
	fmt.Printf("Input: %s\n", info)
	fmt.Printf("Controller: %d, channel: %s\n", ccNumber, channelLabel())
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for valid sideband packet...\n\n")

	select {
	case res := <-packetChan:
		if res.skipped > 0 {
			fmt.Printf("(skipped %d protocol errors before first packet)\n", res.skipped)
		}
		fmt.Printf("SUCCESS: Received valid packet\n")
		fmt.Printf("  Kind: %s\n", cantus.FormatPacketKind(res.pkt.Kind()))
		fmt.Printf("  Codes: %s\n", cantus.FormatCodes(res.pkt.Codes()))
		fmt.Print(cantus.FormatPacketVerbose(res.pkt))
		os.Exit(0)

	case <-time.After(time.Duration(probeTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid packet received within %d seconds\n", probeTimeout)
		os.Exit(1)
	}

	return nil
}
