// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package midiport

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/Velatura/sideband/pkg/cantus"
)

// MessageToEvent converts an incoming driver message to a cantus event.
// Note-on with velocity zero comes out as a note-off, matching how the
// wire parser treats it; anything the protocol does not inspect comes out
// opaque with the original bytes.
func MessageToEvent(msg gomidi.Message) cantus.Event {
	var channel, key, velocity uint8
	var controller, value uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			return cantus.NoteOff(channel, key, 0)
		}
		return cantus.NoteOn(channel, key, velocity)
	case msg.GetNoteOff(&channel, &key, &velocity):
		return cantus.NoteOff(channel, key, velocity)
	case msg.GetControlChange(&channel, &controller, &value):
		return cantus.ControlChange(channel, controller, value)
	default:
		return cantus.Other(append([]byte(nil), msg...))
	}
}

// EventToMessage converts a cantus event to a driver message
func EventToMessage(ev cantus.Event) gomidi.Message {
	switch ev.Kind {
	case cantus.KindNoteOn:
		return gomidi.NoteOn(ev.Channel, ev.Pitch, ev.Velocity)
	case cantus.KindNoteOff:
		return gomidi.NoteOffVelocity(ev.Channel, ev.Pitch, ev.Velocity)
	case cantus.KindControlChange:
		return gomidi.ControlChange(ev.Channel, ev.Number, ev.Value)
	default:
		return gomidi.Message(append([]byte(nil), ev.Raw...))
	}
}
