// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

// Package midiwire converts between raw MIDI 1.0 byte streams and cantus
// events. It understands running status, real-time interleaving, and
// System Exclusive framing; everything the sideband protocol does not
// inspect comes out as an opaque event with its original bytes.
package midiwire

import "github.com/Velatura/sideband/pkg/cantus"

// Status byte layout
const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusPolyPressure  = 0xA0
	statusControlChange = 0xB0
	statusProgramChange = 0xC0
	statusChanPressure  = 0xD0
	statusPitchBend     = 0xE0
	statusSysExStart    = 0xF0
	statusSysExEnd      = 0xF7
	statusTimingClock   = 0xF8
)

// Parser is a per-byte MIDI stream parser. Feed it bytes as they arrive;
// it emits one event per complete message. Not safe for concurrent use.
type Parser struct {
	status  byte
	data    []byte
	needed  int
	sysex   []byte
	inSysex bool
	strays  uint64
}

// NewParser returns a parser waiting for its first status byte
func NewParser() *Parser {
	return &Parser{}
}

// Reset drops any message in progress. Running status is forgotten, so the
// next data bytes are treated as strays until a fresh status arrives.
func (p *Parser) Reset() {
	p.status = 0
	p.data = p.data[:0]
	p.needed = 0
	p.sysex = p.sysex[:0]
	p.inSysex = false
}

// Strays returns how many data bytes arrived with no status to attach to.
// A nonzero count usually means the stream was joined mid-message.
func (p *Parser) Strays() uint64 {
	return p.strays
}

// Parse consumes one byte. The second return is true when the byte
// completed a message; the event is only valid in that case.
func (p *Parser) Parse(b byte) (cantus.Event, bool) {
	// Real-time messages may interrupt any other message and never
	// disturb parser state
	if b >= statusTimingClock {
		return cantus.Other([]byte{b}), true
	}

	if p.inSysex {
		if b == statusSysExEnd {
			p.sysex = append(p.sysex, b)
			ev := cantus.Other(append([]byte(nil), p.sysex...))
			p.sysex = p.sysex[:0]
			p.inSysex = false
			return ev, true
		}
		if b < 0x80 {
			p.sysex = append(p.sysex, b)
			return cantus.Event{}, false
		}
		// A status byte inside SysEx means the dump was cut short. Drop
		// the fragment and parse the new status below.
		p.sysex = p.sysex[:0]
		p.inSysex = false
	}

	if b >= 0x80 {
		return p.handleStatus(b)
	}
	return p.handleData(b)
}

func (p *Parser) handleStatus(b byte) (cantus.Event, bool) {
	p.data = p.data[:0]

	if b == statusSysExStart {
		p.status = 0
		p.inSysex = true
		p.sysex = append(p.sysex[:0], b)
		return cantus.Event{}, false
	}

	if b > statusSysExStart {
		// System common: cancels running status, never sets it
		p.status = 0
		switch b {
		case 0xF1, 0xF3:
			p.status = b
			p.needed = 1
		case 0xF2:
			p.status = b
			p.needed = 2
		case 0xF6:
			return cantus.Other([]byte{b}), true
		}
		// F4, F5 are undefined and a stray F7 has no opening F0; both
		// are dropped
		return cantus.Event{}, false
	}

	p.status = b
	switch b & 0xF0 {
	case statusProgramChange, statusChanPressure:
		p.needed = 1
	default:
		p.needed = 2
	}
	return cantus.Event{}, false
}

func (p *Parser) handleData(b byte) (cantus.Event, bool) {
	if p.status == 0 {
		p.strays++
		return cantus.Event{}, false
	}
	p.data = append(p.data, b)
	if len(p.data) < p.needed {
		return cantus.Event{}, false
	}

	ev := p.emit()
	p.data = p.data[:0]
	if p.status >= statusSysExStart {
		// System common messages do not establish running status
		p.status = 0
	}
	return ev, true
}

// emit builds the event for the completed message under p.status
func (p *Parser) emit() cantus.Event {
	status := p.status
	channel := status & 0x0F
	switch status & 0xF0 {
	case statusNoteOn:
		// Note-on with velocity zero is a release by convention
		if p.data[1] == 0 {
			return cantus.NoteOff(channel, p.data[0], 0)
		}
		return cantus.NoteOn(channel, p.data[0], p.data[1])
	case statusNoteOff:
		return cantus.NoteOff(channel, p.data[0], p.data[1])
	case statusControlChange:
		return cantus.ControlChange(channel, p.data[0], p.data[1])
	default:
		raw := make([]byte, 0, 1+len(p.data))
		raw = append(raw, status)
		raw = append(raw, p.data...)
		return cantus.Other(raw)
	}
}
