// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/midiport"
	"github.com/Velatura/sideband/pkg/midiwire"
)

var (
	sendDryRun bool

	sendTonic string
	sendScale string

	sendDegree     string
	sendQuality    string
	sendAccidental string
	sendBass       string
	sendExts       []string

	sendCodes string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build and transmit a sideband packet",
	Long: `Frame a musical-context payload between START and STOP sentinels and emit
it on the selected output as Control Change events.

The payload is built from one of three subcommands:
  scale  - key context: tonic plus mode
  chord  - chord context: degree, quality, accidental, bass, extensions
  raw    - payload codes given directly

Examples:
  sideband send scale --tonic D --scale dorian --output "Synth MIDI 1"
  sideband send chord --degree V --quality maj --ext b9 --port /dev/ttyUSB0
  sideband send raw --codes "4,17" --dry-run`,
}

var sendScaleCmd = &cobra.Command{
	Use:   "scale",
	Short: "Send a key/scale context packet",
	RunE:  runSendScale,
}

var sendChordCmd = &cobra.Command{
	Use:   "chord",
	Short: "Send a chord context packet",
	RunE:  runSendChord,
}

var sendRawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Send raw payload codes",
	RunE:  runSendRaw,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.AddCommand(sendScaleCmd)
	sendCmd.AddCommand(sendChordCmd)
	sendCmd.AddCommand(sendRawCmd)

	sendCmd.PersistentFlags().BoolVar(&sendDryRun, "dry-run", false, "Print the event sequence instead of sending")

	sendScaleCmd.Flags().StringVar(&sendTonic, "tonic", "", "Scale tonic (C, C#, Db, ... B)")
	sendScaleCmd.Flags().StringVar(&sendScale, "scale", "", "Scale type (ionian, dorian, ... locrian)")
	sendScaleCmd.MarkFlagRequired("tonic")
	sendScaleCmd.MarkFlagRequired("scale")

	sendChordCmd.Flags().StringVar(&sendDegree, "degree", "", "Chord root degree (1-7 or I-VII)")
	sendChordCmd.Flags().StringVar(&sendQuality, "quality", "", "Chord quality (dim, min, maj, aug, sus2, sus4)")
	sendChordCmd.Flags().StringVar(&sendAccidental, "accidental", "", "Root accidental (flat, natural, sharp)")
	sendChordCmd.Flags().StringVar(&sendBass, "bass", "", "Alternate bass degree (1-7)")
	sendChordCmd.Flags().StringArrayVar(&sendExts, "ext", nil, "Chord extension, repeatable (b9, #11, add13, ...)")

	sendRawCmd.Flags().StringVar(&sendCodes, "codes", "", "Comma-separated payload codes (1-126)")
	sendRawCmd.MarkFlagRequired("codes")
}

func runSendScale(cmd *cobra.Command, args []string) error {
	tonic, err := parseTonic(sendTonic)
	if err != nil {
		return err
	}
	scale, err := parseScaleType(sendScale)
	if err != nil {
		return err
	}
	return transmitPacket(cantus.NewScalePacket(tonic, scale))
}

func runSendChord(cmd *cobra.Command, args []string) error {
	var chord cantus.Chord
	var err error

	if sendDegree != "" {
		chord.Degree, err = parseDegree(sendDegree)
		if err != nil {
			return err
		}
		chord.HasDegree = true
	}
	if sendQuality != "" {
		chord.Quality, err = parseQuality(sendQuality)
		if err != nil {
			return err
		}
		chord.HasQuality = true
	}
	if sendAccidental != "" {
		chord.Accidental, err = parseAccidental(sendAccidental)
		if err != nil {
			return err
		}
		chord.HasAccidental = true
	}
	if sendBass != "" {
		chord.Bass, err = parseDegree(sendBass)
		if err != nil {
			return err
		}
		chord.HasBass = true
	}
	for _, e := range sendExts {
		ext, err := parseExtension(e)
		if err != nil {
			return err
		}
		chord.Extensions = append(chord.Extensions, ext)
	}

	if !chord.HasDegree && !chord.HasQuality && !chord.HasAccidental &&
		!chord.HasBass && len(chord.Extensions) == 0 {
		return fmt.Errorf("chord needs at least one of --degree, --quality, --accidental, --bass, --ext")
	}

	pkt, err := cantus.NewChordPacket(chord)
	if err != nil {
		return err
	}
	return transmitPacket(pkt)
}

func runSendRaw(cmd *cobra.Command, args []string) error {
	codes, err := parseCodes(sendCodes)
	if err != nil {
		return err
	}
	return transmitPacket(cantus.NewPacketFromCodes(codes...))
}

// transmitPacket frames the packet and emits it, or prints the would-be
// event sequence under --dry-run.
func transmitPacket(pkt *cantus.Packet) error {
	if err := requireRole(cantus.RoleTransmitter); err != nil {
		return err
	}

	// Shape anomalies are diagnostics, not stop signs. Warn and send.
	for _, v := range cantus.ValidatePacket(pkt) {
		log.Warn().Str("anomaly", v.Type.String()).Msg(v.Message)
	}

	tx := cantus.NewTransmitter(controlNumber(), wireChannel())
	events := tx.EncodePacket(pkt)

	if sendDryRun {
		fmt.Print(cantus.FormatPacketVerbose(pkt))
		fmt.Printf("Events (%d):\n", len(events))
		for _, ev := range events {
			fmt.Printf("  %s\n", ev.String())
		}
		fmt.Printf("Wire bytes: % X\n", midiwire.AppendEvents(nil, events...))
		return nil
	}

	send, closer, info, err := openEventSender()
	if err != nil {
		return err
	}
	defer closer()
	defer midiport.CloseDriver()

	if err := send(events...); err != nil {
		return fmt.Errorf("send failed: %v", err)
	}

	fmt.Printf("Sent %s packet (%d events) via %s\n",
		cantus.FormatPacketKind(pkt.Kind()), len(events), info)
	fmt.Println(cantus.FormatPacket(pkt))
	return nil
}
