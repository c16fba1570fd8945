// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package midiwire

import "github.com/Velatura/sideband/pkg/cantus"

// EventBytes serializes an event back to raw MIDI. Running status is never
// used on output; every message carries its own status byte so receivers
// can join the stream at any point. Opaque events are returned as their
// original bytes.
func EventBytes(ev cantus.Event) []byte {
	switch ev.Kind {
	case cantus.KindNoteOn:
		return []byte{statusNoteOn | ev.Channel&0x0F, ev.Pitch & 0x7F, ev.Velocity & 0x7F}
	case cantus.KindNoteOff:
		return []byte{statusNoteOff | ev.Channel&0x0F, ev.Pitch & 0x7F, ev.Velocity & 0x7F}
	case cantus.KindControlChange:
		return []byte{statusControlChange | ev.Channel&0x0F, ev.Number & 0x7F, ev.Value & 0x7F}
	default:
		return append([]byte(nil), ev.Raw...)
	}
}

// AppendEvents serializes a run of events into one buffer, in order. Handy
// for writing a whole framed transmission in a single connection write.
func AppendEvents(dst []byte, events ...cantus.Event) []byte {
	for _, ev := range events {
		dst = append(dst, EventBytes(ev)...)
	}
	return dst
}
