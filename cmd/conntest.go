// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var conntestCmd = &cobra.Command{
	Use:   "conntest",
	Short: "Test raw transport stability without interpreting MIDI",
	Long: `Open the configured serial or WebSocket transport and just listen,
logging any data received or errors encountered. Useful for separating
connection problems from protocol problems: if conntest sees traffic but
listen reports errors, the transport is fine and the stream itself is
suspect.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runConntest,
}

var conntestDuration int

func init() {
	rootCmd.AddCommand(conntestCmd)
	conntestCmd.Flags().IntVar(&conntestDuration, "duration", 30, "Test duration in seconds")
}

func runConntest(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Transport Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", conntestDuration)

	// Start a goroutine to read from the connection
	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				readChan <- data
			}
		}
	}()

	// Run for the specified duration
	endTime := time.Now().Add(time.Duration(conntestDuration) * time.Second)
	bytesReceived := 0
	reads := 0

	fmt.Printf("Listening for data...\n\n")

	for time.Now().Before(endTime) {
		select {
		case data := <-readChan:
			bytesReceived += len(data)
			reads++
			fmt.Printf("[%s] Received %d bytes: % X\n",
				time.Now().Format("15:04:05.000"), len(data), data)

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			fmt.Printf("\n--- Test Results ---\n")
			fmt.Printf("Reads: %d\n", reads)
			fmt.Printf("Bytes received: %d\n", bytesReceived)
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-time.After(1 * time.Second):
			// Just a heartbeat to show the test is running
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)
		}
	}

	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %d seconds\n", conntestDuration)
	fmt.Printf("Reads: %d\n", reads)
	fmt.Printf("Bytes received: %d\n", bytesReceived)
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}
