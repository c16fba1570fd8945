// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import (
	"fmt"
	"strings"
	"time"
)

// Chord is the chord half of a packet's musical context. Each field is
// optional on the wire, so every value travels with a Has flag; a zero
// Chord means "no chord information".
type Chord struct {
	Accidental    Accidental
	HasAccidental bool
	Degree        Degree
	HasDegree     bool
	Quality       Quality
	HasQuality    bool
	Bass          Degree
	HasBass       bool
	Extensions    []Extension
}

// Symbol renders the chord in compact chart style, e.g. "#IV dim b5 / II".
// Fields that are absent are simply omitted.
func (c Chord) Symbol() string {
	var parts []string
	root := ""
	if c.HasAccidental {
		switch c.Accidental {
		case AccidentalFlat:
			root = "b"
		case AccidentalSharp:
			root = "#"
		}
	}
	if c.HasDegree {
		root += c.Degree.String()
	}
	if root != "" {
		parts = append(parts, root)
	}
	if c.HasQuality {
		parts = append(parts, c.Quality.String())
	}
	for _, e := range c.Extensions {
		parts = append(parts, e.String())
	}
	if c.HasBass {
		parts = append(parts, "/ "+c.Bass.String())
	}
	if len(parts) == 0 {
		return "(empty chord)"
	}
	return strings.Join(parts, " ")
}

// Packet is one decoded sideband packet: the payload codes as they
// appeared on the wire plus the musical context they describe. Packets are
// immutable once built; all access goes through getters.
type Packet struct {
	codes     []Code
	tonic     Tonic
	hasTonic  bool
	scale     ScaleType
	hasScale  bool
	chord     *Chord
	timestamp time.Time
}

// NewScalePacket builds a packet announcing a key: tonic plus mode
func NewScalePacket(tonic Tonic, scale ScaleType) *Packet {
	return &Packet{
		codes:     []Code{TonicCode(tonic), ScaleTypeCode(scale)},
		tonic:     tonic,
		hasTonic:  true,
		scale:     scale,
		hasScale:  true,
		timestamp: time.Now(),
	}
}

// NewChordPacket builds a packet announcing a chord. Payload order is
// fixed: accidental, degree, quality, alternate bass, then extensions in
// the order given. Extensions that do not exist on the wire (add5, add7)
// are rejected.
func NewChordPacket(chord Chord) (*Packet, error) {
	var codes []Code
	if chord.HasAccidental {
		codes = append(codes, AccidentalCode(chord.Accidental))
	}
	if chord.HasDegree {
		codes = append(codes, DegreeCode(chord.Degree))
	}
	if chord.HasQuality {
		codes = append(codes, QualityCode(chord.Quality))
	}
	if chord.HasBass {
		codes = append(codes, BassCode(chord.Bass))
	}
	for _, e := range chord.Extensions {
		c, ok := ExtensionCode(e)
		if !ok {
			return nil, fmt.Errorf("chord extension %s does not exist on the wire", e)
		}
		codes = append(codes, c)
	}
	cc := chord
	cc.Extensions = append([]Extension(nil), chord.Extensions...)
	return &Packet{
		codes:     codes,
		chord:     &cc,
		timestamp: time.Now(),
	}, nil
}

// NewPacketFromCodes builds a packet straight from payload codes. No
// validation happens here; unknown codes ride along and simply contribute
// no musical context. Useful for hand-built and replayed payloads.
func NewPacketFromCodes(codes ...Code) *Packet {
	p := &Packet{
		codes:     append([]Code(nil), codes...),
		timestamp: time.Now(),
	}
	p.applyCodes(false)
	return p
}

// applyCodes walks the payload and fills the semantic fields. In strict
// mode the walk stops at the first unknown code; otherwise unknown codes
// are skipped and the first one is reported after the walk completes.
func (p *Packet) applyCodes(strict bool) error {
	var firstErr error
	for i, c := range p.codes {
		info, ok := LookupCode(c)
		if !ok {
			err := &UnknownCodeError{Code: c, Position: i}
			if strict {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		switch info.Category {
		case CategoryTonic:
			p.tonic = info.Tonic
			p.hasTonic = true
		case CategoryScaleType:
			p.scale = info.ScaleType
			p.hasScale = true
		case CategoryAccidental:
			p.ensureChord().Accidental = info.Accidental
			p.chord.HasAccidental = true
		case CategoryDegree:
			p.ensureChord().Degree = info.Degree
			p.chord.HasDegree = true
		case CategoryQuality:
			p.ensureChord().Quality = info.Quality
			p.chord.HasQuality = true
		case CategoryAltBass:
			p.ensureChord().Bass = info.Degree
			p.chord.HasBass = true
		case CategoryExtension:
			p.ensureChord().Extensions = append(p.chord.Extensions, info.Extension)
		}
	}
	return firstErr
}

func (p *Packet) ensureChord() *Chord {
	if p.chord == nil {
		p.chord = &Chord{}
	}
	return p.chord
}

// Codes returns a copy of the payload codes as they appeared on the wire,
// sentinels excluded
func (p *Packet) Codes() []Code {
	return append([]Code(nil), p.codes...)
}

// Len returns the payload length in codes
func (p *Packet) Len() int {
	return len(p.codes)
}

// Tonic returns the packet's tonic, if it carried one
func (p *Packet) Tonic() (Tonic, bool) {
	return p.tonic, p.hasTonic
}

// Scale returns the packet's scale type, if it carried one
func (p *Packet) Scale() (ScaleType, bool) {
	return p.scale, p.hasScale
}

// Chord returns a copy of the packet's chord information, if any field of
// it was present
func (p *Packet) Chord() (Chord, bool) {
	if p.chord == nil {
		return Chord{}, false
	}
	c := *p.chord
	c.Extensions = append([]Extension(nil), p.chord.Extensions...)
	return c, true
}

// Timestamp returns when the packet was decoded or built
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// Kind classifies the packet by which context it carries
func (p *Packet) Kind() PacketKind {
	hasScale := p.hasTonic || p.hasScale
	hasChord := p.chord != nil
	switch {
	case hasScale && hasChord:
		return PacketMixed
	case hasScale:
		return PacketScale
	case hasChord:
		return PacketChord
	default:
		return PacketEmpty
	}
}
