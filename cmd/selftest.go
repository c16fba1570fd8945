// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/midiwire"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run in-process loopback scenarios (no hardware needed)",
	Long: `Run canned transmitter-to-receiver scenarios entirely in process: each
payload is framed, serialized to wire bytes, parsed back, and decoded, so
the whole pipeline is exercised without a MIDI port.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed`,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

// loopbackEvents serializes events to wire bytes, parses them back, and
// feeds the result through a receiver, collecting everything that comes out.
func loopbackEvents(rx *cantus.Receiver, events []cantus.Event) (packets []*cantus.Packet, errs []error, forwarded []cantus.Event) {
	parser := midiwire.NewParser()
	for _, b := range midiwire.AppendEvents(nil, events...) {
		ev, ok := parser.Parse(b)
		if !ok {
			continue
		}
		pkt, fwd, err := rx.HandleEvent(ev)
		if err != nil {
			errs = append(errs, err)
		}
		if pkt != nil {
			packets = append(packets, pkt)
		}
		if fwd {
			forwarded = append(forwarded, ev)
		}
	}
	return packets, errs, forwarded
}

type selftestScenario struct {
	name string
	run  func() error
}

func selftestScenarios() []selftestScenario {
	cc := controlNumber()
	ch := wireChannel()

	return []selftestScenario{
		{"scale packet round trip", func() error {
			tx := cantus.NewTransmitter(cc, ch)
			rx := cantus.NewReceiver(cc)
			sent := cantus.NewScalePacket(cantus.TonicD, cantus.ScaleDorian)
			packets, errs, _ := loopbackEvents(rx, tx.EncodePacket(sent))
			if len(errs) > 0 {
				return fmt.Errorf("unexpected errors: %v", errs)
			}
			if len(packets) != 1 {
				return fmt.Errorf("expected 1 packet, got %d", len(packets))
			}
			tonic, ok := packets[0].Tonic()
			if !ok || tonic != cantus.TonicD {
				return fmt.Errorf("tonic lost: got %v, %v", tonic, ok)
			}
			scale, ok := packets[0].Scale()
			if !ok || scale != cantus.ScaleDorian {
				return fmt.Errorf("scale lost: got %v, %v", scale, ok)
			}
			return nil
		}},

		{"chord packet round trip", func() error {
			tx := cantus.NewTransmitter(cc, ch)
			rx := cantus.NewReceiver(cc)
			chord := cantus.Chord{
				Degree: cantus.Degree5, HasDegree: true,
				Quality: cantus.QualityMajor, HasQuality: true,
				Extensions: []cantus.Extension{{Group: cantus.Ext9th, Variant: cantus.ExtFlat}},
			}
			sent, err := cantus.NewChordPacket(chord)
			if err != nil {
				return err
			}
			packets, errs, _ := loopbackEvents(rx, tx.EncodePacket(sent))
			if len(errs) > 0 {
				return fmt.Errorf("unexpected errors: %v", errs)
			}
			if len(packets) != 1 {
				return fmt.Errorf("expected 1 packet, got %d", len(packets))
			}
			got, ok := packets[0].Chord()
			if !ok {
				return fmt.Errorf("chord lost")
			}
			if !got.HasDegree || got.Degree != cantus.Degree5 {
				return fmt.Errorf("degree lost: %+v", got)
			}
			if !got.HasQuality || got.Quality != cantus.QualityMajor {
				return fmt.Errorf("quality lost: %+v", got)
			}
			if len(got.Extensions) != 1 || got.Extensions[0] != chord.Extensions[0] {
				return fmt.Errorf("extensions lost: %+v", got.Extensions)
			}
			return nil
		}},

		{"empty packet is legal", func() error {
			tx := cantus.NewTransmitter(cc, ch)
			rx := cantus.NewReceiver(cc)
			packets, errs, _ := loopbackEvents(rx, tx.Encode(nil))
			if len(errs) > 0 {
				return fmt.Errorf("unexpected errors: %v", errs)
			}
			if len(packets) != 1 || packets[0].Len() != 0 {
				return fmt.Errorf("expected one empty packet, got %d", len(packets))
			}
			return nil
		}},

		{"ordinary traffic passes through", func() error {
			rx := cantus.NewReceiver(cc)
			events := []cantus.Event{
				cantus.NoteOn(0, 60, 100),
				cantus.ControlChange(0, 7, 90),
				cantus.NoteOff(0, 60, 0),
			}
			packets, errs, forwarded := loopbackEvents(rx, events)
			if len(errs) > 0 || len(packets) > 0 {
				return fmt.Errorf("ordinary traffic produced packets or errors")
			}
			if len(forwarded) != len(events) {
				return fmt.Errorf("forwarded %d of %d events", len(forwarded), len(events))
			}
			for i, ev := range forwarded {
				if ev.Kind != events[i].Kind || ev.Pitch != events[i].Pitch || ev.Value != events[i].Value {
					return fmt.Errorf("event %d changed in transit: %s", i, ev)
				}
			}
			return nil
		}},

		{"re-arm discards partial packet", func() error {
			rx := cantus.NewReceiver(cc)
			var events []cantus.Event
			for _, v := range []uint8{127, 5, 6, 127, 7, 0} {
				events = append(events, cantus.ControlChange(ch, cc, v))
			}
			packets, errs, _ := loopbackEvents(rx, events)
			if len(packets) != 1 {
				return fmt.Errorf("expected 1 packet, got %d", len(packets))
			}
			codes := packets[0].Codes()
			if len(codes) != 1 || codes[0] != 7 {
				return fmt.Errorf("expected payload [7], got %v", codes)
			}
			if len(errs) != 1 {
				return fmt.Errorf("expected 1 discard error, got %v", errs)
			}
			if _, ok := errs[0].(*cantus.PartialDiscardError); !ok {
				return fmt.Errorf("expected PartialDiscardError, got %T", errs[0])
			}
			return nil
		}},

		{"spurious STOP is ignored", func() error {
			rx := cantus.NewReceiver(cc)
			events := []cantus.Event{
				cantus.ControlChange(ch, cc, 0), // STOP while idle
				cantus.ControlChange(ch, cc, 127),
				cantus.ControlChange(ch, cc, 4),
				cantus.ControlChange(ch, cc, 0),
			}
			packets, errs, _ := loopbackEvents(rx, events)
			if len(errs) != 1 {
				return fmt.Errorf("expected 1 error, got %v", errs)
			}
			if _, ok := errs[0].(*cantus.SpuriousStopError); !ok {
				return fmt.Errorf("expected SpuriousStopError, got %T", errs[0])
			}
			if len(packets) != 1 {
				return fmt.Errorf("receiver did not recover: %d packets", len(packets))
			}
			return nil
		}},

		{"unknown code rejects packet", func() error {
			rx := cantus.NewReceiver(cc)
			events := []cantus.Event{
				cantus.ControlChange(ch, cc, 127),
				cantus.ControlChange(ch, cc, 1), // between STOP and the tonic range
				cantus.ControlChange(ch, cc, 0),
				cantus.ControlChange(ch, cc, 127),
				cantus.ControlChange(ch, cc, 4),
				cantus.ControlChange(ch, cc, 0),
			}
			packets, errs, _ := loopbackEvents(rx, events)
			if len(errs) != 1 {
				return fmt.Errorf("expected 1 error, got %v", errs)
			}
			uc, ok := errs[0].(*cantus.UnknownCodeError)
			if !ok || uc.Code != 1 {
				return fmt.Errorf("expected UnknownCodeError for code 1, got %v", errs[0])
			}
			if len(packets) != 1 {
				return fmt.Errorf("receiver did not recover: %d packets", len(packets))
			}
			return nil
		}},

		{"transmitter detects role conflict", func() error {
			tx := cantus.NewTransmitter(cc, ch)
			fwd, err := tx.HandleEvent(cantus.ControlChange(ch, cc, uint8(cantus.StopCode)))
			if fwd {
				return fmt.Errorf("reserved traffic must not be forwarded")
			}
			if _, ok := err.(*cantus.RoleConflictError); !ok {
				return fmt.Errorf("expected RoleConflictError, got %v", err)
			}
			fwd, err = tx.HandleEvent(cantus.NoteOn(0, 64, 80))
			if !fwd || err != nil {
				return fmt.Errorf("ordinary traffic must forward cleanly")
			}
			return nil
		}},

		{"running status survives the wire", func() error {
			// Framed packets leave as consecutive CC events on one channel;
			// a transmitter upstream may compress them with running status.
			rx := cantus.NewReceiver(cc)
			wire := []byte{0xB0 | ch, cc, 127, cc, 4, cc, 17, cc, 0}
			parser := midiwire.NewParser()
			var packets []*cantus.Packet
			for _, b := range wire {
				ev, ok := parser.Parse(b)
				if !ok {
					continue
				}
				pkt, _, err := rx.HandleEvent(ev)
				if err != nil {
					return fmt.Errorf("unexpected error: %v", err)
				}
				if pkt != nil {
					packets = append(packets, pkt)
				}
			}
			if len(packets) != 1 || packets[0].Kind() != cantus.PacketScale {
				return fmt.Errorf("expected one scale packet, got %d", len(packets))
			}
			return nil
		}},
	}
}

func runSelftest(cmd *cobra.Command, args []string) error {
	scenarios := selftestScenarios()

	fmt.Printf("Sideband - Self Test\n")
	fmt.Printf("Controller: %d, channel: %s\n", ccNumber, channelLabel())
	fmt.Printf("Running %d scenarios...\n\n", len(scenarios))

	failed := 0
	for _, sc := range scenarios {
		if err := sc.run(); err != nil {
			fmt.Printf("  FAIL  %-36s %v\n", sc.name, err)
			failed++
		} else {
			fmt.Printf("  PASS  %s\n", sc.name)
		}
	}

	fmt.Printf("\n--- Self test summary ---\n")
	fmt.Printf("%d scenarios, %d passed, %d failed\n", len(scenarios), len(scenarios)-failed, failed)

	if failed > 0 {
		os.Exit(1)
	}
	return nil
}
