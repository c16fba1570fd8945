// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/midiport"
)

var (
	monitorShowAll       bool
	monitorStatsInterval int
	monitorUseTUI        bool
	monitorLenient       bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the musical context carried by a live MIDI stream",
	Long: `Follow the selected input and keep a live view of the musical context the
sideband declares: the current key and the current chord, with decode
statistics and a log of recent packets and protocol errors.

By default only packets and errors are logged. Use --show-all to log
forwarded ordinary events too.

Runs as a full-screen terminal UI; --tui=false falls back to plain text
output that only reports context changes.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowAll, "show-all", false, "Log forwarded events too (not just packets)")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&monitorUseTUI, "tui", true, "Use terminal UI (false for text mode)")
	monitorCmd.Flags().BoolVar(&monitorLenient, "lenient", false, "Keep packets with unknown codes instead of rejecting them")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if err := requireRole(cantus.RoleReceiver); err != nil {
		return err
	}

	rx := newReceiver()
	rx.SetLenient(monitorLenient)

	if monitorUseTUI {
		return runMonitorTUI(rx)
	}
	return runMonitorText(rx)
}

// runMonitorTUI buffers source events through a channel, then drives the
// receiver from a pump goroutine created after the program exists; every
// outcome goes to the TUI as a message and the model owns the statistics.
func runMonitorTUI(rx *cantus.Receiver) error {
	events := make(chan cantus.Event, 128)
	stop, _, info, err := startEventStream(func(ev cantus.Event) {
		events <- ev
	})
	if err != nil {
		return err
	}
	defer stop()
	defer midiport.CloseDriver()

	m := initialMonitorModel(info, monitorStatsInterval, monitorShowAll)
	p := tea.NewProgram(m)

	go func() {
		for ev := range events {
			pkt, forwarded, handleErr := rx.HandleEvent(ev)
			var anomalies []cantus.ValidationError
			if pkt != nil {
				anomalies = cantus.ValidatePacket(pkt)
			}
			p.Send(midiEventMsg{
				event:     ev,
				packet:    pkt,
				forwarded: forwarded,
				err:       handleErr,
				anomalies: anomalies,
				bufferLen: rx.BufferLen(),
			})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runMonitorText reports context changes as plain lines. Packets that
// restate the current context are counted but not printed.
func runMonitorText(rx *cantus.Receiver) error {
	stats := cantus.NewStatistics()

	events := make(chan cantus.Event, 128)
	stop, _, info, err := startEventStream(func(ev cantus.Event) {
		events <- ev
	})
	if err != nil {
		return err
	}
	defer stop()
	defer midiport.CloseDriver()

	fmt.Printf("Sideband - Monitor\n")
	fmt.Printf("Input: %s\n", info)
	fmt.Printf("Controller: %d, channel: %s\n", ccNumber, channelLabel())
	fmt.Printf("Press Ctrl+C to exit\n\n")

	currentScale := ""
	currentChord := ""

	statsTicker := time.NewTicker(time.Duration(monitorStatsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case ev := <-events:
			pkt, forwarded, err := rx.HandleEvent(ev)

			var anomalies []cantus.ValidationError
			if pkt != nil {
				anomalies = cantus.ValidatePacket(pkt)
			}
			stats.Update(pkt, forwarded, err, anomalies)
			stats.RecordBufferLen(rx.BufferLen())

			if err != nil {
				logProtocolError(err)
			}
			if pkt != nil {
				ts := pkt.Timestamp().Format("15:04:05.000")
				if tonic, ok := pkt.Tonic(); ok {
					if scale, ok := pkt.Scale(); ok {
						line := cantus.FormatScale(tonic, scale)
						if line != currentScale {
							currentScale = line
							fmt.Printf("[%s] Key is now %s\n", ts, line)
						}
					}
				}
				if chord, ok := pkt.Chord(); ok {
					line := chord.Symbol()
					if line != currentChord {
						currentChord = line
						fmt.Printf("[%s] Chord is now %s\n", ts, line)
					}
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
