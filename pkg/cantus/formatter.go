// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import (
	"fmt"
	"strings"
)

// FormatPacketKind returns a short uppercase name for a packet kind
func FormatPacketKind(k PacketKind) string {
	switch k {
	case PacketEmpty:
		return "EMPTY"
	case PacketScale:
		return "SCALE"
	case PacketChord:
		return "CHORD"
	case PacketMixed:
		return "MIXED"
	default:
		return "UNKNOWN"
	}
}

// FormatCodes renders payload codes as bracketed decimals, e.g. "[2 16]"
func FormatCodes(codes []Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// FormatScale renders a key with its notes spelled out, e.g.
// "D Dorian (D E F G A B C)"
func FormatScale(tonic Tonic, scale ScaleType) string {
	intervals := scale.Intervals()
	if intervals == nil {
		return fmt.Sprintf("%s %s", tonic, scale)
	}
	notes := make([]string, len(intervals))
	for i, offset := range intervals {
		notes[i] = Tonic((int(tonic) + offset) % 12).String()
	}
	return fmt.Sprintf("%s %s (%s)", tonic, scale, strings.Join(notes, " "))
}

// formatContext summarizes whatever musical context the packet carries
func formatContext(p *Packet) string {
	var parts []string
	tonic, hasTonic := p.Tonic()
	scale, hasScale := p.Scale()
	switch {
	case hasTonic && hasScale:
		parts = append(parts, fmt.Sprintf("%s %s", tonic, scale))
	case hasTonic:
		parts = append(parts, fmt.Sprintf("tonic %s", tonic))
	case hasScale:
		parts = append(parts, fmt.Sprintf("scale %s", scale))
	}
	if chord, ok := p.Chord(); ok {
		parts = append(parts, chord.Symbol())
	}
	if len(parts) == 0 {
		return "(no context)"
	}
	return strings.Join(parts, "  ")
}

// FormatPacket renders a packet as a single log line:
//
//	[15:04:05.000] SCALE D Dorian (D E F G A B C) codes=[4 17]
func FormatPacket(p *Packet) string {
	ts := p.Timestamp().Format("15:04:05.000")
	kind := FormatPacketKind(p.Kind())
	if p.Kind() == PacketScale {
		tonic, _ := p.Tonic()
		scale, hasScale := p.Scale()
		if hasScale {
			return fmt.Sprintf("[%s] %s %s codes=%s", ts, kind, FormatScale(tonic, scale), FormatCodes(p.codes))
		}
	}
	return fmt.Sprintf("[%s] %s %s codes=%s", ts, kind, formatContext(p), FormatCodes(p.codes))
}

// FormatPacketVerbose renders a packet with one line per payload code,
// decoding each through the lookup table. Unknown codes are marked rather
// than skipped.
func FormatPacketVerbose(p *Packet) string {
	var b strings.Builder
	b.WriteString(FormatPacket(p))
	b.WriteString("\n")
	for i, c := range p.Codes() {
		info, ok := LookupCode(c)
		if !ok {
			fmt.Fprintf(&b, "  [%d] code %3d  UNKNOWN\n", i, c)
			continue
		}
		fmt.Fprintf(&b, "  [%d] code %3d  %s\n", i, c, info)
	}
	return b.String()
}
