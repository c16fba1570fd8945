// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/midiport"
)

var (
	listenShowAll       bool
	listenLenient       bool
	listenMaxPayload    int
	listenStatsInterval int
	listenForward       bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Decode sideband packets from a MIDI stream",
	Long: `Run the receiver pipeline on the selected input: Control Change events on
the reserved controller number are consumed and decoded into packets;
everything else passes through.

Decoded packets are printed as they complete. Framing and payload problems
(spurious STOP, re-armed packets, unknown codes) are logged and never stop
the stream. Use --show-all to also print forwarded ordinary events, and
--forward to re-emit them on an output, which is the actual filter
deployment: sideband in, clean MIDI out.

By default a payload with an unknown code is rejected whole; --lenient
keeps the packet and skips the codes it cannot name.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().BoolVar(&listenShowAll, "show-all", false, "Show forwarded events too (not just packets)")
	listenCmd.Flags().BoolVar(&listenLenient, "lenient", false, "Keep packets with unknown codes instead of rejecting them")
	listenCmd.Flags().IntVar(&listenMaxPayload, "max-payload", 0, "Discard packets longer than this many codes (0 = unbounded)")
	listenCmd.Flags().IntVar(&listenStatsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	listenCmd.Flags().BoolVar(&listenForward, "forward", false, "Re-emit passthrough events on the output")
}

func runListen(cmd *cobra.Command, args []string) error {
	if err := requireRole(cantus.RoleReceiver); err != nil {
		return err
	}

	rx := newReceiver()
	rx.SetLenient(listenLenient)
	if listenMaxPayload > 0 {
		rx.SetMaxPayload(listenMaxPayload)
	}
	stats := cantus.NewStatistics()

	// The event source calls from its own goroutine; hand events to the
	// main loop over a channel so the receiver has a single owner.
	events := make(chan cantus.Event, 128)
	stop, conn, info, err := startEventStream(func(ev cantus.Event) {
		events <- ev
	})
	if err != nil {
		return err
	}
	defer stop()
	defer midiport.CloseDriver()

	var forward func(...cantus.Event) error
	forwardInfo := ""
	if listenForward {
		if outputName != "" {
			var closer func()
			forward, closer, forwardInfo, err = openEventSender()
			if err != nil {
				return err
			}
			defer closer()
		} else if conn != nil {
			// Byte transports are full duplex; write back on the same one.
			forward = connSender(conn)
			forwardInfo = info
		} else {
			return fmt.Errorf("--forward needs --output when the input is a MIDI port")
		}
	}

	fmt.Printf("Sideband - Listen\n")
	fmt.Printf("Input: %s\n", info)
	fmt.Printf("Controller: %d, channel: %s\n", ccNumber, channelLabel())
	if listenForward {
		fmt.Printf("Forwarding passthrough events to %s\n", forwardInfo)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	statsTicker := time.NewTicker(time.Duration(listenStatsInterval) * time.Second)
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
				fmt.Println(cantus.FormatPacket(pkt))
				for _, v := range anomalies {
					log.Warn().Str("anomaly", v.Type.String()).Msg(v.Message)
				}
			}
			if forwarded {
				if listenShowAll {
					fmt.Printf("  pass  %s\n", ev.String())
				}
				if forward != nil {
					if err := forward(ev); err != nil {
						log.Warn().Err(err).Msg("forward failed")
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

// logProtocolError routes each protocol error type to an appropriate level.
// All of them are stream diagnostics; none ends the pipeline.
func logProtocolError(err error) {
	switch e := err.(type) {
	case *cantus.UnknownCodeError:
		log.Warn().Uint8("code", uint8(e.Code)).Int("position", e.Position).Msg("unknown code, packet rejected")
	case *cantus.PartialDiscardError:
		log.Warn().Int("discarded", len(e.Discarded)).Msg("START during packet, partial payload discarded")
	case *cantus.SpuriousStopError:
		log.Debug().Msg("spurious STOP ignored")
	case *cantus.UnterminatedPacketError:
		log.Warn().Int("len", e.Len).Int("max", e.Max).Msg("unterminated packet discarded")
	default:
		log.Warn().Err(err).Msg("protocol error")
	}
}

// channelLabel names the configured channel filter for banners.
func channelLabel() string {
	if midiChannel <= 0 {
		return "all"
	}
	return fmt.Sprintf("%d", midiChannel)
}
