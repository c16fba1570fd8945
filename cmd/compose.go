// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/midiport"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Interactive TUI for composing and sending sideband packets",
	Long: `Compose sideband packets interactively and send them on the selected
output.

The left panel lists common presets; the command line takes the same
compact syntax the presets are built from:

  scale TONIC SCALE                       scale d dorian
  chord DEGREE [QUALITY] [EXT...] [/BASS] chord V maj b9 /3
  raw CODE [CODE...]                      raw 4 17

A leading b or # on the chord degree sets the accidental (chord bII maj).
Tab switches between the preset list and the command line. Every sent
packet is logged with its decoded meaning.

Supports MIDI ports, serial, and WebSocket outputs.`,
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	if err := requireRole(cantus.RoleTransmitter); err != nil {
		return err
	}

	send, closer, info, err := openEventSender()
	if err != nil {
		return err
	}
	defer closer()
	defer midiport.CloseDriver()

	tx := cantus.NewTransmitter(controlNumber(), wireChannel())

	m := initialComposeModel(tx, send, info)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// parseComposeCommand turns one command line into a packet
func parseComposeCommand(input string) (*cantus.Packet, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch strings.ToLower(fields[0]) {
	case "scale":
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: scale TONIC SCALE (e.g. scale d dorian)")
		}
		tonic, err := parseTonic(fields[1])
		if err != nil {
			return nil, err
		}
		scale, err := parseScaleType(fields[2])
		if err != nil {
			return nil, err
		}
		return cantus.NewScalePacket(tonic, scale), nil

	case "chord":
		return parseChordCommand(fields[1:])

	case "raw":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: raw CODE [CODE...] (e.g. raw 4 17)")
		}
		codes, err := parseCodes(strings.Join(fields[1:], " "))
		if err != nil {
			return nil, err
		}
		return cantus.NewPacketFromCodes(codes...), nil
	}

	return nil, fmt.Errorf("unknown command %q (use scale, chord, raw)", fields[0])
}

// parseChordCommand reads tokens after "chord": a degree with an optional
// b/# accidental prefix, then any mix of one quality, extensions, and a
// /BASS token.
func parseChordCommand(fields []string) (*cantus.Packet, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("usage: chord DEGREE [QUALITY] [EXT...] [/BASS]")
	}

	var chord cantus.Chord

	head := strings.ToLower(fields[0])
	if len(head) > 1 {
		switch head[0] {
		case 'b':
			if d, err := parseDegree(head[1:]); err == nil {
				chord.Accidental = cantus.AccidentalFlat
				chord.HasAccidental = true
				chord.Degree = d
				chord.HasDegree = true
			}
		case '#':
			if d, err := parseDegree(head[1:]); err == nil {
				chord.Accidental = cantus.AccidentalSharp
				chord.HasAccidental = true
				chord.Degree = d
				chord.HasDegree = true
			}
		}
	}
	if !chord.HasDegree {
		d, err := parseDegree(fields[0])
		if err != nil {
			return nil, err
		}
		chord.Degree = d
		chord.HasDegree = true
	}

	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "/") {
			bass, err := parseDegree(f[1:])
			if err != nil {
				return nil, fmt.Errorf("bad bass %q: %v", f, err)
			}
			chord.Bass = bass
			chord.HasBass = true
			continue
		}
		if q, err := parseQuality(f); err == nil && !chord.HasQuality {
			chord.Quality = q
			chord.HasQuality = true
			continue
		}
		ext, err := parseExtension(f)
		if err != nil {
			return nil, err
		}
		chord.Extensions = append(chord.Extensions, ext)
	}

	return cantus.NewChordPacket(chord)
}
