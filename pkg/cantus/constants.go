// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

// Package cantus implements the Cantus MIDI sideband protocol.
//
// Cantus carries structured musical context (key, scale, chord) between
// stages of a MIDI event chain by encoding it as Control Change events on a
// reserved controller number, framed by START/STOP sentinel values. This
// package provides the framing state machine, payload interpretation,
// packet transmission, validation, and formatting.
package cantus

// Code is a single payload unit on the wire: the value field of a Control
// Change event on the reserved controller number. Valid codes are 0-127.
type Code uint8

// Sentinel codes delimiting a packet on the wire
const (
	StopCode  Code = 0
	StartCode Code = 127
)

// DefaultControlNumber is the reserved controller number used when no
// explicit number is configured. Controllers 102-119 are undefined by the
// MIDI spec; 111 sits in that range and is what the reference transmitter
// ships with.
const DefaultControlNumber = 111

// Semantic code ranges, values inclusive. Codes outside all ranges (and the
// sentinels) are unknown to the interpreter.
const (
	codeTonicMin      Code = 2
	codeTonicMax      Code = 13
	codeScaleTypeMin  Code = 16
	codeScaleTypeMax  Code = 22
	codeAccidentalMin Code = 85
	codeAccidentalMax Code = 87
	codeDegreeMin     Code = 88
	codeDegreeMax     Code = 94
	codeQualityMin    Code = 95
	codeQualityMax    Code = 100
	codeBassMin       Code = 101
	codeBassMax       Code = 107
	codeExtensionMin  Code = 108
	codeExtensionMax  Code = 125
)

// Framing state machine states (internal)
const (
	stateIdle = iota
	stateReceiving
)

// Role is the fixed transmit-or-receive mode of one protocol participant.
// A process instance is configured as exactly one of the two for its
// lifetime; it never switches.
type Role int

// Role values
const (
	RoleReceiver Role = iota
	RoleTransmitter
)

// Category identifies which semantic range a code belongs to
type Category int

// Category values
const (
	CategoryTonic Category = iota
	CategoryScaleType
	CategoryAccidental
	CategoryDegree
	CategoryQuality
	CategoryAltBass
	CategoryExtension
)

// Tonic is a chromatic scale tonic, C through B
type Tonic int

// Tonic values
const (
	TonicC Tonic = iota
	TonicCSharp
	TonicD
	TonicDSharp
	TonicE
	TonicF
	TonicFSharp
	TonicG
	TonicGSharp
	TonicA
	TonicASharp
	TonicB
)

// ScaleType is one of the seven diatonic modes
type ScaleType int

// Scale type values
const (
	ScaleIonian ScaleType = iota
	ScaleDorian
	ScalePhrygian
	ScaleLydian
	ScaleMixolydian
	ScaleAeolian
	ScaleLocrian
)

// Accidental modifies a chord's root degree
type Accidental int

// Accidental values
const (
	AccidentalFlat Accidental = iota
	AccidentalNatural
	AccidentalSharp
)

// Degree is a scale degree, 1 through 7. It doubles as the alternate-bass
// degree in chord packets.
type Degree int

// Degree values
const (
	Degree1 Degree = iota + 1
	Degree2
	Degree3
	Degree4
	Degree5
	Degree6
	Degree7
)

// Quality is a chord quality
type Quality int

// Quality values
const (
	QualityDiminished Quality = iota
	QualityMinor
	QualityMajor
	QualityAugmented
	QualitySus2
	QualitySus4
)

// ExtGroup identifies which chord extension a code alters
type ExtGroup int

// Extension group values
const (
	Ext5th ExtGroup = iota
	Ext7th
	Ext9th
	Ext11th
	Ext13th
)

// ExtVariant is how an extension group is altered. The add variant exists
// only for the 9th, 11th, and 13th groups; the 5th and 7th carry
// flat/natural/sharp only.
type ExtVariant int

// Extension variant values
const (
	ExtFlat ExtVariant = iota
	ExtNatural
	ExtSharp
	ExtAdd
)

// Extension is one chord extension alteration, e.g. add9 or flat5
type Extension struct {
	Group   ExtGroup
	Variant ExtVariant
}

// PacketKind classifies a decoded packet by which fields it carries
type PacketKind int

// Packet kind values
const (
	PacketEmpty PacketKind = iota
	PacketScale
	PacketChord
	PacketMixed
)
