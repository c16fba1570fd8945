// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import "fmt"

// EventKind discriminates the Event union
type EventKind int

// Event kinds. KindOther covers every MIDI event the protocol does not
// inspect (pitch bend, aftertouch, program change, SysEx, realtime); such
// events are forwarded untouched and never enter the sideband path.
const (
	KindNoteOn EventKind = iota
	KindNoteOff
	KindControlChange
	KindOther
)

// Event is a single MIDI event as seen by the protocol. It is a closed
// union over the four kinds; which fields are meaningful depends on Kind:
//
//	KindNoteOn, KindNoteOff   Channel, Pitch, Velocity
//	KindControlChange         Channel, Number, Value
//	KindOther                 Raw (the original bytes, unparsed)
//
// Events are plain values. Copying one is safe; the Raw slice of a
// KindOther event is shared between copies and must not be mutated.
type Event struct {
	Kind     EventKind
	Channel  uint8
	Pitch    uint8
	Velocity uint8
	Number   uint8
	Value    uint8
	Raw      []byte
}

// NoteOn builds a note-on event. All arguments are 7-bit MIDI values;
// channel is 0-15.
func NoteOn(channel, pitch, velocity uint8) Event {
	return Event{Kind: KindNoteOn, Channel: channel, Pitch: pitch, Velocity: velocity}
}

// NoteOff builds a note-off event
func NoteOff(channel, pitch, velocity uint8) Event {
	return Event{Kind: KindNoteOff, Channel: channel, Pitch: pitch, Velocity: velocity}
}

// ControlChange builds a control-change event
func ControlChange(channel, number, value uint8) Event {
	return Event{Kind: KindControlChange, Channel: channel, Number: number, Value: value}
}

// Other builds an opaque event wrapping raw MIDI bytes the protocol does
// not interpret. The slice is retained, not copied.
func Other(raw []byte) Event {
	return Event{Kind: KindOther, Raw: raw}
}

// IsSideband reports whether the event is a Control Change on the given
// reserved controller number, i.e. whether it belongs to the sideband
// rather than the ordinary MIDI stream. Channel is not considered here;
// Receiver.HandleEvent applies its channel filter separately.
func (e Event) IsSideband(controlNumber uint8) bool {
	return e.Kind == KindControlChange && e.Number == controlNumber
}

// String renders the event for logs
func (e Event) String() string {
	switch e.Kind {
	case KindNoteOn:
		return fmt.Sprintf("NoteOn ch=%d pitch=%d vel=%d", e.Channel, e.Pitch, e.Velocity)
	case KindNoteOff:
		return fmt.Sprintf("NoteOff ch=%d pitch=%d vel=%d", e.Channel, e.Pitch, e.Velocity)
	case KindControlChange:
		return fmt.Sprintf("ControlChange ch=%d cc=%d val=%d", e.Channel, e.Number, e.Value)
	default:
		return fmt.Sprintf("Other len=%d", len(e.Raw))
	}
}
