// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import (
	"errors"
	"strings"
	"testing"
)

// feedCodes runs a sequence of sideband values through a receiver as
// Control Change events on its controller number, collecting every packet
// and error that comes out
func feedCodes(r *Receiver, values ...Code) ([]*Packet, []error) {
	var packets []*Packet
	var errs []error
	for _, v := range values {
		pkt, _, err := r.HandleEvent(ControlChange(0, r.ControlNumber(), uint8(v)))
		if pkt != nil {
			packets = append(packets, pkt)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return packets, errs
}

// ============================================================
// Code Table Tests
// ============================================================

func TestLookupCode_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		code     Code
		category Category
		check    func(t *testing.T, info CodeInfo)
	}{
		{
			name:     "tonic C at range start",
			code:     2,
			category: CategoryTonic,
			check: func(t *testing.T, info CodeInfo) {
				if info.Tonic != TonicC {
					t.Errorf("Expected TonicC, got %v", info.Tonic)
				}
			},
		},
		{
			name:     "tonic B at range end",
			code:     13,
			category: CategoryTonic,
			check: func(t *testing.T, info CodeInfo) {
				if info.Tonic != TonicB {
					t.Errorf("Expected TonicB, got %v", info.Tonic)
				}
			},
		},
		{
			name:     "Ionian at range start",
			code:     16,
			category: CategoryScaleType,
			check: func(t *testing.T, info CodeInfo) {
				if info.ScaleType != ScaleIonian {
					t.Errorf("Expected ScaleIonian, got %v", info.ScaleType)
				}
			},
		},
		{
			name:     "Locrian at range end",
			code:     22,
			category: CategoryScaleType,
			check: func(t *testing.T, info CodeInfo) {
				if info.ScaleType != ScaleLocrian {
					t.Errorf("Expected ScaleLocrian, got %v", info.ScaleType)
				}
			},
		},
		{
			name:     "flat accidental",
			code:     85,
			category: CategoryAccidental,
			check: func(t *testing.T, info CodeInfo) {
				if info.Accidental != AccidentalFlat {
					t.Errorf("Expected AccidentalFlat, got %v", info.Accidental)
				}
			},
		},
		{
			name:     "degree I",
			code:     88,
			category: CategoryDegree,
			check: func(t *testing.T, info CodeInfo) {
				if info.Degree != Degree1 {
					t.Errorf("Expected Degree1, got %v", info.Degree)
				}
			},
		},
		{
			name:     "degree VII",
			code:     94,
			category: CategoryDegree,
			check: func(t *testing.T, info CodeInfo) {
				if info.Degree != Degree7 {
					t.Errorf("Expected Degree7, got %v", info.Degree)
				}
			},
		},
		{
			name:     "major quality",
			code:     97,
			category: CategoryQuality,
			check: func(t *testing.T, info CodeInfo) {
				if info.Quality != QualityMajor {
					t.Errorf("Expected QualityMajor, got %v", info.Quality)
				}
			},
		},
		{
			name:     "sus4 quality at range end",
			code:     100,
			category: CategoryQuality,
			check: func(t *testing.T, info CodeInfo) {
				if info.Quality != QualitySus4 {
					t.Errorf("Expected QualitySus4, got %v", info.Quality)
				}
			},
		},
		{
			name:     "alt bass V",
			code:     105,
			category: CategoryAltBass,
			check: func(t *testing.T, info CodeInfo) {
				if info.Degree != Degree5 {
					t.Errorf("Expected Degree5, got %v", info.Degree)
				}
			},
		},
		{
			name:     "flat 5th at extension start",
			code:     108,
			category: CategoryExtension,
			check: func(t *testing.T, info CodeInfo) {
				if info.Extension != (Extension{Group: Ext5th, Variant: ExtFlat}) {
					t.Errorf("Expected b5, got %v", info.Extension)
				}
			},
		},
		{
			name:     "add9",
			code:     117,
			category: CategoryExtension,
			check: func(t *testing.T, info CodeInfo) {
				if info.Extension != (Extension{Group: Ext9th, Variant: ExtAdd}) {
					t.Errorf("Expected add9, got %v", info.Extension)
				}
			},
		},
		{
			name:     "add13 at extension end",
			code:     125,
			category: CategoryExtension,
			check: func(t *testing.T, info CodeInfo) {
				if info.Extension != (Extension{Group: Ext13th, Variant: ExtAdd}) {
					t.Errorf("Expected add13, got %v", info.Extension)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := LookupCode(tt.code)
			if !ok {
				t.Fatalf("LookupCode(%d) should be known", tt.code)
			}
			if info.Category != tt.category {
				t.Errorf("Category mismatch: expected %v, got %v", tt.category, info.Category)
			}
			tt.check(t, info)
		})
	}
}

func TestLookupCode_UnknownValues(t *testing.T) {
	// Every code outside the defined ranges, including both sentinels
	unknown := []Code{0, 1, 14, 15, 23, 50, 84, 126, 127}
	for _, c := range unknown {
		if _, ok := LookupCode(c); ok {
			t.Errorf("LookupCode(%d) should be unknown", c)
		}
	}
}

func TestLookupCode_RoundTripsEncoders(t *testing.T) {
	for tonic := TonicC; tonic <= TonicB; tonic++ {
		info, ok := LookupCode(TonicCode(tonic))
		if !ok || info.Category != CategoryTonic || info.Tonic != tonic {
			t.Errorf("Tonic %v did not round trip through code %d", tonic, TonicCode(tonic))
		}
	}
	for scale := ScaleIonian; scale <= ScaleLocrian; scale++ {
		info, ok := LookupCode(ScaleTypeCode(scale))
		if !ok || info.Category != CategoryScaleType || info.ScaleType != scale {
			t.Errorf("Scale %v did not round trip through code %d", scale, ScaleTypeCode(scale))
		}
	}
	for d := Degree1; d <= Degree7; d++ {
		info, ok := LookupCode(DegreeCode(d))
		if !ok || info.Category != CategoryDegree || info.Degree != d {
			t.Errorf("Degree %v did not round trip through code %d", d, DegreeCode(d))
		}
		info, ok = LookupCode(BassCode(d))
		if !ok || info.Category != CategoryAltBass || info.Degree != d {
			t.Errorf("Bass %v did not round trip through code %d", d, BassCode(d))
		}
	}
	for q := QualityDiminished; q <= QualitySus4; q++ {
		info, ok := LookupCode(QualityCode(q))
		if !ok || info.Category != CategoryQuality || info.Quality != q {
			t.Errorf("Quality %v did not round trip through code %d", q, QualityCode(q))
		}
	}
}

func TestExtensionCode_InvalidCombinations(t *testing.T) {
	// add only exists for the 9th, 11th and 13th
	if _, ok := ExtensionCode(Extension{Group: Ext5th, Variant: ExtAdd}); ok {
		t.Error("add5 should have no wire code")
	}
	if _, ok := ExtensionCode(Extension{Group: Ext7th, Variant: ExtAdd}); ok {
		t.Error("add7 should have no wire code")
	}
	if _, ok := ExtensionCode(Extension{Group: Ext9th, Variant: ExtAdd}); !ok {
		t.Error("add9 should have a wire code")
	}
}

func TestExtensionCode_RoundTrip(t *testing.T) {
	for g := Ext5th; g <= Ext13th; g++ {
		for v := ExtFlat; v <= ExtAdd; v++ {
			code, ok := ExtensionCode(Extension{Group: g, Variant: v})
			if !ok {
				continue
			}
			info, known := LookupCode(code)
			if !known || info.Category != CategoryExtension {
				t.Errorf("Extension code %d should decode as an extension", code)
				continue
			}
			if info.Extension.Group != g || info.Extension.Variant != v {
				t.Errorf("Extension %v/%v decoded as %v/%v", g, v, info.Extension.Group, info.Extension.Variant)
			}
		}
	}
}

func TestScaleType_Intervals(t *testing.T) {
	ionian := ScaleIonian.Intervals()
	expected := []int{0, 2, 4, 5, 7, 9, 11}
	if len(ionian) != len(expected) {
		t.Fatalf("Expected 7 intervals, got %d", len(ionian))
	}
	for i, v := range expected {
		if ionian[i] != v {
			t.Errorf("Ionian interval %d: expected %d, got %d", i, v, ionian[i])
		}
	}

	// Aeolian is the natural minor
	aeolian := ScaleAeolian.Intervals()
	if aeolian[2] != 3 {
		t.Errorf("Aeolian third should be 3 semitones, got %d", aeolian[2])
	}
}

// ============================================================
// Packet Tests
// ============================================================

func TestNewScalePacket(t *testing.T) {
	p := NewScalePacket(TonicC, ScaleIonian)

	codes := p.Codes()
	if len(codes) != 2 || codes[0] != 2 || codes[1] != 16 {
		t.Errorf("Expected codes [2 16], got %v", codes)
	}
	tonic, ok := p.Tonic()
	if !ok || tonic != TonicC {
		t.Errorf("Expected tonic C, got %v (ok=%v)", tonic, ok)
	}
	scale, ok := p.Scale()
	if !ok || scale != ScaleIonian {
		t.Errorf("Expected Ionian, got %v (ok=%v)", scale, ok)
	}
	if p.Kind() != PacketScale {
		t.Errorf("Expected PacketScale, got %v", p.Kind())
	}
	if p.Timestamp().IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestNewChordPacket(t *testing.T) {
	chord := Chord{
		Accidental:    AccidentalFlat,
		HasAccidental: true,
		Degree:        Degree7,
		HasDegree:     true,
		Quality:       QualityMajor,
		HasQuality:    true,
		Bass:          Degree5,
		HasBass:       true,
		Extensions:    []Extension{{Group: Ext7th, Variant: ExtFlat}, {Group: Ext9th, Variant: ExtAdd}},
	}
	p, err := NewChordPacket(chord)
	if err != nil {
		t.Fatalf("NewChordPacket error: %v", err)
	}

	// Fixed payload order: accidental, degree, quality, bass, extensions
	expected := []Code{85, 94, 97, 105, 111, 117}
	codes := p.Codes()
	if len(codes) != len(expected) {
		t.Fatalf("Expected %d codes, got %d", len(expected), len(codes))
	}
	for i, c := range expected {
		if codes[i] != c {
			t.Errorf("Code %d: expected %d, got %d", i, c, codes[i])
		}
	}

	got, ok := p.Chord()
	if !ok {
		t.Fatal("Packet should carry a chord")
	}
	if got.Degree != Degree7 || !got.HasDegree {
		t.Error("Chord degree did not survive")
	}
	if len(got.Extensions) != 2 {
		t.Errorf("Expected 2 extensions, got %d", len(got.Extensions))
	}
	if p.Kind() != PacketChord {
		t.Errorf("Expected PacketChord, got %v", p.Kind())
	}
}

func TestNewChordPacket_InvalidExtension(t *testing.T) {
	chord := Chord{
		Degree:     Degree1,
		HasDegree:  true,
		Extensions: []Extension{{Group: Ext5th, Variant: ExtAdd}},
	}
	if _, err := NewChordPacket(chord); err == nil {
		t.Error("Expected error for add5 extension")
	}
}

func TestNewPacketFromCodes(t *testing.T) {
	// Unknown codes ride along without complaint
	p := NewPacketFromCodes(2, 16, 50)

	if p.Len() != 3 {
		t.Errorf("Expected 3 codes, got %d", p.Len())
	}
	if tonic, ok := p.Tonic(); !ok || tonic != TonicC {
		t.Error("Known codes should still populate context")
	}
}

func TestPacket_CodesIsACopy(t *testing.T) {
	p := NewScalePacket(TonicD, ScaleDorian)
	codes := p.Codes()
	codes[0] = 99
	if p.Codes()[0] != TonicCode(TonicD) {
		t.Error("Mutating the returned slice should not affect the packet")
	}
}

func TestPacket_Kind(t *testing.T) {
	tests := []struct {
		name     string
		codes    []Code
		expected PacketKind
	}{
		{"empty", nil, PacketEmpty},
		{"scale", []Code{2, 16}, PacketScale},
		{"chord", []Code{88, 97}, PacketChord},
		{"mixed", []Code{2, 16, 88}, PacketMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPacketFromCodes(tt.codes...)
			if p.Kind() != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, p.Kind())
			}
		})
	}
}

func TestChord_Symbol(t *testing.T) {
	chord := Chord{
		Accidental:    AccidentalFlat,
		HasAccidental: true,
		Degree:        Degree7,
		HasDegree:     true,
		Quality:       QualityMajor,
		HasQuality:    true,
	}
	sym := chord.Symbol()
	if !strings.Contains(sym, "bVII") {
		t.Errorf("Symbol should contain 'bVII', got '%s'", sym)
	}
	if !strings.Contains(sym, "maj") {
		t.Errorf("Symbol should contain 'maj', got '%s'", sym)
	}
}

// ============================================================
// Interpreter Tests
// ============================================================

func TestInterpreter_Strict_ValidCodes(t *testing.T) {
	in := NewInterpreter(true)
	p, err := in.Interpret([]Code{2, 16})
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if tonic, ok := p.Tonic(); !ok || tonic != TonicC {
		t.Error("Expected tonic C")
	}
	if scale, ok := p.Scale(); !ok || scale != ScaleIonian {
		t.Error("Expected Ionian")
	}
}

func TestInterpreter_Strict_UnknownCode(t *testing.T) {
	in := NewInterpreter(true)
	p, err := in.Interpret([]Code{2, 1, 16})
	if p != nil {
		t.Error("Strict interpreter should reject the whole packet")
	}
	var unknownErr *UnknownCodeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected UnknownCodeError, got %v", err)
	}
	if unknownErr.Code != 1 || unknownErr.Position != 1 {
		t.Errorf("Expected code 1 at position 1, got code %d at %d", unknownErr.Code, unknownErr.Position)
	}
}

func TestInterpreter_Lenient_UnknownCode(t *testing.T) {
	in := NewInterpreter(false)
	p, err := in.Interpret([]Code{2, 1, 16})
	if p == nil {
		t.Fatal("Lenient interpreter should still deliver the packet")
	}
	if err == nil {
		t.Error("Lenient interpreter should still report the unknown code")
	}
	if tonic, ok := p.Tonic(); !ok || tonic != TonicC {
		t.Error("Known codes should still decode")
	}
	if scale, ok := p.Scale(); !ok || scale != ScaleIonian {
		t.Error("Codes after the unknown one should still decode")
	}
}

func TestInterpreter_LastOccurrenceWins(t *testing.T) {
	in := NewInterpreter(true)
	p, err := in.Interpret([]Code{2, 4, 16})
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if tonic, _ := p.Tonic(); tonic != TonicD {
		t.Errorf("Later tonic should win, expected D, got %v", tonic)
	}
}

// ============================================================
// Receiver Tests
// ============================================================

func TestReceiver_Passthrough(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	tests := []struct {
		name  string
		event Event
	}{
		{"note on", NoteOn(0, 60, 100)},
		{"note off", NoteOff(0, 60, 0)},
		{"other controller", ControlChange(0, 7, 100)},
		{"opaque event", Other([]byte{0xF8})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, forward, err := r.HandleEvent(tt.event)
			if !forward {
				t.Error("Ordinary traffic should be forwarded")
			}
			if pkt != nil || err != nil {
				t.Errorf("Ordinary traffic should produce nothing, got pkt=%v err=%v", pkt, err)
			}
			if r.Armed() {
				t.Error("Ordinary traffic should not touch framing state")
			}
		})
	}
}

func TestReceiver_ScalePacket(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	packets, errs := feedCodes(r, 127, 2, 16, 0)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(packets))
	}

	p := packets[0]
	if tonic, ok := p.Tonic(); !ok || tonic != TonicC {
		t.Errorf("Expected tonic C, got %v", tonic)
	}
	if scale, ok := p.Scale(); !ok || scale != ScaleIonian {
		t.Errorf("Expected Ionian, got %v", scale)
	}
	if r.Armed() {
		t.Error("Receiver should be idle after STOP")
	}
}

func TestReceiver_SidebandNeverForwarded(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	for _, v := range []Code{127, 2, 16, 0, 5, 0} {
		_, forward, _ := r.HandleEvent(ControlChange(0, DefaultControlNumber, uint8(v)))
		if forward {
			t.Errorf("Sideband value %d should be consumed, not forwarded", v)
		}
	}
}

func TestReceiver_UnarmedDrop(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	// Payload codes with no START in sight: consumed without comment
	packets, errs := feedCodes(r, 5, 6, 7)
	if len(packets) != 0 || len(errs) != 0 {
		t.Errorf("Unarmed payload should produce nothing, got %d packets, %d errors", len(packets), len(errs))
	}
	if r.Armed() || r.BufferLen() != 0 {
		t.Error("Receiver should remain idle with an empty buffer")
	}
}

func TestReceiver_SpuriousStop(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	pkt, err := r.HandleCode(StopCode)
	if pkt != nil {
		t.Error("Spurious STOP should not produce a packet")
	}
	var stopErr *SpuriousStopError
	if !errors.As(err, &stopErr) {
		t.Fatalf("Expected SpuriousStopError, got %v", err)
	}
	if r.Armed() {
		t.Error("Spurious STOP should leave the receiver idle")
	}

	// The stream keeps working afterwards
	packets, errs := feedCodes(r, 127, 2, 16, 0)
	if len(errs) != 0 || len(packets) != 1 {
		t.Error("Receiver should decode normally after a spurious STOP")
	}
}

func TestReceiver_ReArmDiscardsPartial(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	packets, errs := feedCodes(r, 127, 5, 6, 127, 7, 0)

	if len(errs) != 1 {
		t.Fatalf("Expected exactly 1 error, got %d: %v", len(errs), errs)
	}
	var discardErr *PartialDiscardError
	if !errors.As(errs[0], &discardErr) {
		t.Fatalf("Expected PartialDiscardError, got %v", errs[0])
	}
	if len(discardErr.Discarded) != 2 || discardErr.Discarded[0] != 5 || discardErr.Discarded[1] != 6 {
		t.Errorf("Expected discarded codes [5 6], got %v", discardErr.Discarded)
	}

	if len(packets) != 1 {
		t.Fatalf("Expected exactly 1 packet, got %d", len(packets))
	}
	codes := packets[0].Codes()
	if len(codes) != 1 || codes[0] != 7 {
		t.Errorf("Expected packet payload [7], got %v", codes)
	}
}

func TestReceiver_UnknownCodeInPacket(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	packets, errs := feedCodes(r, 127, 1, 0)
	if len(packets) != 0 {
		t.Error("Strict receiver should reject a packet with an unknown code")
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errs))
	}
	var unknownErr *UnknownCodeError
	if !errors.As(errs[0], &unknownErr) {
		t.Fatalf("Expected UnknownCodeError, got %v", errs[0])
	}
	if unknownErr.Code != 1 {
		t.Errorf("Expected code 1, got %d", unknownErr.Code)
	}
	if r.Armed() {
		t.Error("Receiver should return to idle after the bad packet")
	}

	// Next packet decodes fine
	packets, errs = feedCodes(r, 127, 2, 16, 0)
	if len(errs) != 0 || len(packets) != 1 {
		t.Error("Receiver should recover after an unknown code")
	}
}

func TestReceiver_Lenient(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)
	r.SetLenient(true)

	packets, errs := feedCodes(r, 127, 2, 1, 16, 0)
	if len(packets) != 1 {
		t.Fatal("Lenient receiver should deliver the packet")
	}
	if len(errs) != 1 {
		t.Error("Lenient receiver should still report the unknown code")
	}
	if scale, ok := packets[0].Scale(); !ok || scale != ScaleIonian {
		t.Error("Codes after the unknown one should decode")
	}
}

func TestReceiver_EmptyPacket(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	packets, errs := feedCodes(r, 127, 0)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(packets) != 1 {
		t.Fatal("START immediately followed by STOP is a legal empty packet")
	}
	if packets[0].Len() != 0 || packets[0].Kind() != PacketEmpty {
		t.Error("Expected an empty packet")
	}
}

func TestReceiver_MaxPayload(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)
	r.SetMaxPayload(3)

	packets, errs := feedCodes(r, 127, 2, 3, 4, 5)
	if len(packets) != 0 {
		t.Error("Overlong packet should not decode")
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errs))
	}
	var untermErr *UnterminatedPacketError
	if !errors.As(errs[0], &untermErr) {
		t.Fatalf("Expected UnterminatedPacketError, got %v", errs[0])
	}
	if untermErr.Max != 3 || untermErr.Len != 4 {
		t.Errorf("Expected len=4 max=3, got len=%d max=%d", untermErr.Len, untermErr.Max)
	}
	if r.Armed() || r.BufferLen() != 0 {
		t.Error("Receiver should discard the buffer and go idle")
	}
}

func TestReceiver_UnboundedByDefault(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	r.HandleCode(StartCode)
	for i := 0; i < 500; i++ {
		if _, err := r.HandleCode(Code(2)); err != nil {
			t.Fatalf("Unbounded receiver errored at code %d: %v", i, err)
		}
	}
	if r.BufferLen() != 500 {
		t.Errorf("Expected 500 buffered codes, got %d", r.BufferLen())
	}
}

func TestReceiver_ChannelFilter(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)
	r.SetChannel(3)

	// Reserved controller on another channel stays ordinary traffic
	pkt, forward, err := r.HandleEvent(ControlChange(5, DefaultControlNumber, uint8(StartCode)))
	if !forward || pkt != nil || err != nil {
		t.Error("Off-channel sideband should be forwarded unchanged")
	}
	if r.Armed() {
		t.Error("Off-channel sideband should not arm the receiver")
	}

	// On the configured channel it is consumed
	_, forward, _ = r.HandleEvent(ControlChange(3, DefaultControlNumber, uint8(StartCode)))
	if forward {
		t.Error("On-channel sideband should be consumed")
	}
	if !r.Armed() {
		t.Error("On-channel START should arm the receiver")
	}
}

func TestReceiver_Reset(t *testing.T) {
	r := NewReceiver(DefaultControlNumber)

	r.HandleCode(StartCode)
	r.HandleCode(2)
	r.HandleCode(16)

	r.Reset()

	if r.Armed() || r.BufferLen() != 0 {
		t.Error("Reset should discard the packet in progress")
	}

	// A STOP now is spurious, not a packet boundary
	_, err := r.HandleCode(StopCode)
	var stopErr *SpuriousStopError
	if !errors.As(err, &stopErr) {
		t.Error("STOP after reset should be spurious")
	}
}

func TestReceiver_CustomControlNumber(t *testing.T) {
	r := NewReceiver(20)

	// Default number is ordinary traffic for this receiver
	_, forward, _ := r.HandleEvent(ControlChange(0, DefaultControlNumber, uint8(StartCode)))
	if !forward {
		t.Error("Controller 111 should be forwarded when the sideband rides on 20")
	}

	_, forward, _ = r.HandleEvent(ControlChange(0, 20, uint8(StartCode)))
	if forward {
		t.Error("Controller 20 should be consumed")
	}
	if !r.Armed() {
		t.Error("START on controller 20 should arm the receiver")
	}
}

// ============================================================
// Transmitter Tests
// ============================================================

func TestTransmitter_Encode(t *testing.T) {
	tx := NewTransmitter(DefaultControlNumber, 2)

	events := tx.Encode([]Code{2, 16})
	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}
	if Code(events[0].Value) != StartCode {
		t.Error("First event should carry START")
	}
	if Code(events[len(events)-1].Value) != StopCode {
		t.Error("Last event should carry STOP")
	}
	for i, ev := range events {
		if ev.Kind != KindControlChange {
			t.Errorf("Event %d should be a Control Change", i)
		}
		if ev.Number != DefaultControlNumber {
			t.Errorf("Event %d on controller %d, expected %d", i, ev.Number, DefaultControlNumber)
		}
		if ev.Channel != 2 {
			t.Errorf("Event %d on channel %d, expected 2", i, ev.Channel)
		}
	}
	if events[1].Value != 2 || events[2].Value != 16 {
		t.Error("Payload should appear in order between the sentinels")
	}
}

func TestTransmitter_EncodeEmptyPayload(t *testing.T) {
	tx := NewTransmitter(DefaultControlNumber, 0)
	events := tx.Encode(nil)
	if len(events) != 2 {
		t.Fatalf("Expected bare sentinels, got %d events", len(events))
	}
}

func TestTransmitter_RoleConflict(t *testing.T) {
	tx := NewTransmitter(DefaultControlNumber, 0)

	// Ordinary traffic passes
	forward, err := tx.HandleEvent(NoteOn(0, 60, 100))
	if !forward || err != nil {
		t.Error("Ordinary traffic should be forwarded")
	}

	// Sideband payload is consumed quietly
	forward, err = tx.HandleEvent(ControlChange(0, DefaultControlNumber, 2))
	if forward {
		t.Error("Sideband traffic should be consumed by a transmitter")
	}
	if err != nil {
		t.Errorf("Payload codes should be dropped quietly, got %v", err)
	}

	// A STOP is a role conflict
	forward, err = tx.HandleEvent(ControlChange(0, DefaultControlNumber, uint8(StopCode)))
	if forward {
		t.Error("STOP should be consumed")
	}
	var roleErr *RoleConflictError
	if !errors.As(err, &roleErr) {
		t.Fatalf("Expected RoleConflictError, got %v", err)
	}
	if roleErr.Role != RoleTransmitter {
		t.Errorf("Expected transmitter role in error, got %v", roleErr.Role)
	}
}

func TestRoundTrip_ScalePacket(t *testing.T) {
	tx := NewTransmitter(DefaultControlNumber, 0)
	rx := NewReceiver(DefaultControlNumber)

	sent := NewScalePacket(TonicD, ScaleDorian)

	var got *Packet
	for _, ev := range tx.EncodePacket(sent) {
		pkt, forward, err := rx.HandleEvent(ev)
		if err != nil {
			t.Fatalf("Round trip error: %v", err)
		}
		if forward {
			t.Error("Transmitted sideband should be consumed by the receiver")
		}
		if pkt != nil {
			got = pkt
		}
	}

	if got == nil {
		t.Fatal("Expected a decoded packet")
	}
	tonic, _ := got.Tonic()
	scale, _ := got.Scale()
	if tonic != TonicD || scale != ScaleDorian {
		t.Errorf("Expected D Dorian, got %v %v", tonic, scale)
	}
}

func TestRoundTrip_ChordPacket(t *testing.T) {
	tx := NewTransmitter(DefaultControlNumber, 0)
	rx := NewReceiver(DefaultControlNumber)

	chord := Chord{
		Accidental:    AccidentalSharp,
		HasAccidental: true,
		Degree:        Degree4,
		HasDegree:     true,
		Quality:       QualityDiminished,
		HasQuality:    true,
		Extensions:    []Extension{{Group: Ext7th, Variant: ExtFlat}},
	}
	sent, err := NewChordPacket(chord)
	if err != nil {
		t.Fatalf("NewChordPacket error: %v", err)
	}

	var got *Packet
	for _, ev := range tx.EncodePacket(sent) {
		pkt, _, err := rx.HandleEvent(ev)
		if err != nil {
			t.Fatalf("Round trip error: %v", err)
		}
		if pkt != nil {
			got = pkt
		}
	}

	if got == nil {
		t.Fatal("Expected a decoded packet")
	}
	gotChord, ok := got.Chord()
	if !ok {
		t.Fatal("Expected chord context")
	}
	if gotChord.Accidental != AccidentalSharp || !gotChord.HasAccidental {
		t.Error("Accidental did not survive the round trip")
	}
	if gotChord.Degree != Degree4 || gotChord.Quality != QualityDiminished {
		t.Error("Degree or quality did not survive the round trip")
	}
	if len(gotChord.Extensions) != 1 || gotChord.Extensions[0] != (Extension{Group: Ext7th, Variant: ExtFlat}) {
		t.Error("Extension did not survive the round trip")
	}
}

// ============================================================
// Validation Tests
// ============================================================

func TestValidatePacket_CleanScale(t *testing.T) {
	p := NewScalePacket(TonicC, ScaleIonian)
	if errs := ValidatePacket(p); len(errs) != 0 {
		t.Errorf("Expected no anomalies, got %v", errs)
	}
}

func TestValidatePacket_EmptyPayload(t *testing.T) {
	p := NewPacketFromCodes()
	errs := ValidatePacket(p)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 anomaly, got %d", len(errs))
	}
	if errs[0].Type != AnomalyEmptyPayload {
		t.Errorf("Expected AnomalyEmptyPayload, got %v", errs[0].Type)
	}
}

func TestValidatePacket_DuplicateCategory(t *testing.T) {
	p := NewPacketFromCodes(2, 4, 16)
	errs := ValidatePacket(p)
	found := false
	for _, e := range errs {
		if e.Type == AnomalyDuplicateCategory {
			found = true
		}
	}
	if !found {
		t.Error("Two tonic codes should flag AnomalyDuplicateCategory")
	}
}

func TestValidatePacket_IncompleteScale(t *testing.T) {
	p := NewPacketFromCodes(2)
	errs := ValidatePacket(p)
	if len(errs) != 1 || errs[0].Type != AnomalyIncompleteScale {
		t.Errorf("Tonic without scale type should flag AnomalyIncompleteScale, got %v", errs)
	}
}

func TestValidatePacket_RootlessChord(t *testing.T) {
	p := NewPacketFromCodes(97)
	errs := ValidatePacket(p)
	if len(errs) != 1 || errs[0].Type != AnomalyRootlessChord {
		t.Errorf("Quality without degree should flag AnomalyRootlessChord, got %v", errs)
	}
}

func TestValidatePacket_ConflictingExtensions(t *testing.T) {
	p := NewPacketFromCodes(88, 108, 110)
	errs := ValidatePacket(p)
	found := false
	for _, e := range errs {
		if e.Type == AnomalyConflictingExtensions {
			found = true
		}
	}
	if !found {
		t.Error("b5 and #5 together should flag AnomalyConflictingExtensions")
	}
}

func TestValidatePacket_MixedContext(t *testing.T) {
	p := NewPacketFromCodes(2, 16, 88)
	errs := ValidatePacket(p)
	found := false
	for _, e := range errs {
		if e.Type == AnomalyMixedContext {
			found = true
		}
	}
	if !found {
		t.Error("Scale and chord in one packet should flag AnomalyMixedContext")
	}
}

func TestValidatePacket_Nil(t *testing.T) {
	if errs := ValidatePacket(nil); errs != nil {
		t.Error("Nil packet should validate to nil")
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Type:    AnomalyEmptyPayload,
		Message: "packet framed correctly but carried no payload",
	}
	if !strings.Contains(err.Error(), "EMPTY_PAYLOAD") {
		t.Errorf("Error() should name the anomaly type, got '%s'", err.Error())
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatPacketKind(t *testing.T) {
	tests := []struct {
		kind     PacketKind
		expected string
	}{
		{PacketEmpty, "EMPTY"},
		{PacketScale, "SCALE"},
		{PacketChord, "CHORD"},
		{PacketMixed, "MIXED"},
		{PacketKind(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatPacketKind(tt.kind); got != tt.expected {
				t.Errorf("FormatPacketKind(%v) = %s, expected %s", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestFormatCodes(t *testing.T) {
	if got := FormatCodes([]Code{2, 16}); got != "[2 16]" {
		t.Errorf("Expected '[2 16]', got '%s'", got)
	}
	if got := FormatCodes(nil); got != "[]" {
		t.Errorf("Expected '[]', got '%s'", got)
	}
}

func TestFormatScale(t *testing.T) {
	result := FormatScale(TonicD, ScaleDorian)
	if !strings.Contains(result, "D Dorian") {
		t.Errorf("Expected 'D Dorian', got '%s'", result)
	}
	// D Dorian spells out to the white keys from D
	for _, note := range []string{"D", "E", "F", "G", "A", "B", "C"} {
		if !strings.Contains(result, note) {
			t.Errorf("Expected note %s in '%s'", note, result)
		}
	}
}

func TestFormatPacket(t *testing.T) {
	p := NewScalePacket(TonicC, ScaleIonian)
	result := FormatPacket(p)
	if !strings.Contains(result, "SCALE") {
		t.Error("Should contain packet kind")
	}
	if !strings.Contains(result, "C Ionian") {
		t.Error("Should contain the key")
	}
	if !strings.Contains(result, "codes=[2 16]") {
		t.Error("Should contain the raw codes")
	}
	if !strings.HasPrefix(result, "[") {
		t.Error("Should start with a timestamp")
	}
}

func TestFormatPacketVerbose(t *testing.T) {
	p := NewPacketFromCodes(2, 50)
	result := FormatPacketVerbose(p)
	if !strings.Contains(result, "tonic C") {
		t.Error("Should decode known codes")
	}
	if !strings.Contains(result, "UNKNOWN") {
		t.Error("Should mark unknown codes")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"tonic", TonicFSharp.String(), "F#"},
		{"scale", ScaleMixolydian.String(), "Mixolydian"},
		{"accidental", AccidentalFlat.String(), "flat"},
		{"degree", Degree4.String(), "IV"},
		{"quality", QualitySus2.String(), "sus2"},
		{"extension flat", Extension{Group: Ext5th, Variant: ExtFlat}.String(), "b5"},
		{"extension add", Extension{Group: Ext9th, Variant: ExtAdd}.String(), "add9"},
		{"tonic out of range", Tonic(99).String(), "UNKNOWN"},
		{"degree out of range", Degree(0).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, tt.got)
			}
		})
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_NewStatistics(t *testing.T) {
	s := NewStatistics()
	if s.TotalEvents != 0 {
		t.Error("New statistics should have 0 total events")
	}
	if s.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
}

func TestStatistics_Update_Forwarded(t *testing.T) {
	s := NewStatistics()
	s.Update(nil, true, nil, nil)
	if s.TotalEvents != 1 || s.ForwardedEvents != 1 || s.SidebandEvents != 0 {
		t.Errorf("Forwarded event miscounted: %+v", s)
	}
}

func TestStatistics_Update_Packet(t *testing.T) {
	s := NewStatistics()
	p := NewScalePacket(TonicC, ScaleIonian)
	s.Update(p, false, nil, nil)
	if s.PacketsDecoded != 1 || s.ScalePackets != 1 {
		t.Errorf("Packet miscounted: decoded=%d scale=%d", s.PacketsDecoded, s.ScalePackets)
	}
}

func TestStatistics_Update_ErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(s *Statistics) bool
	}{
		{"unknown code", &UnknownCodeError{Code: 1}, func(s *Statistics) bool { return s.UnknownCodes == 1 && s.DecodeFailures == 1 }},
		{"spurious stop", &SpuriousStopError{}, func(s *Statistics) bool { return s.SpuriousStops == 1 }},
		{"partial discard", &PartialDiscardError{Discarded: []Code{5}}, func(s *Statistics) bool { return s.PartialDiscards == 1 }},
		{"role conflict", &RoleConflictError{Role: RoleTransmitter}, func(s *Statistics) bool { return s.RoleConflicts == 1 }},
		{"unterminated", &UnterminatedPacketError{Len: 10, Max: 5}, func(s *Statistics) bool { return s.UnterminatedDrops == 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatistics()
			s.Update(nil, false, tt.err, nil)
			if !tt.check(s) {
				t.Errorf("Error not classified: %+v", s)
			}
		})
	}
}

func TestStatistics_Update_Anomalies(t *testing.T) {
	s := NewStatistics()
	p := NewPacketFromCodes(2)
	s.Update(p, false, nil, ValidatePacket(p))
	if s.AnomaliesSeen != 1 {
		t.Errorf("Expected 1 anomaly counted, got %d", s.AnomaliesSeen)
	}
}

func TestStatistics_RecordBufferLen(t *testing.T) {
	s := NewStatistics()
	s.RecordBufferLen(3)
	s.RecordBufferLen(7)
	s.RecordBufferLen(5)
	if s.MaxBufferLen != 7 {
		t.Errorf("Expected max buffer 7, got %d", s.MaxBufferLen)
	}
}

func TestStatistics_CalculateRates(t *testing.T) {
	s := NewStatistics()
	s.PacketsDecoded = 100
	s.UnknownCodes = 5
	s.CalculateRates()
	if s.PacketRate <= 0 {
		t.Error("PacketRate should be positive")
	}
	if s.ErrorRate <= 0 {
		t.Error("ErrorRate should be positive")
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.TotalEvents = 100
	s.PacketsDecoded = 50
	s.UnknownCodes = 3

	s.Reset()

	if s.TotalEvents != 0 || s.PacketsDecoded != 0 || s.UnknownCodes != 0 {
		t.Error("Reset should zero every counter")
	}
	if s.StartTime.IsZero() {
		t.Error("Reset should restart the clock")
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.TotalEvents = 100
	s.PacketsDecoded = 10
	result := s.String()
	if !strings.Contains(result, "Statistics") {
		t.Error("String should contain 'Statistics'")
	}
	if !strings.Contains(result, "100 total") {
		t.Error("String should contain the event count")
	}
}

// ============================================================
// Event Tests
// ============================================================

func TestEvent_IsSideband(t *testing.T) {
	if !ControlChange(0, 111, 64).IsSideband(111) {
		t.Error("CC 111 should be sideband for controller 111")
	}
	if ControlChange(0, 7, 64).IsSideband(111) {
		t.Error("CC 7 should not be sideband for controller 111")
	}
	if NoteOn(0, 111, 64).IsSideband(111) {
		t.Error("A note is never sideband")
	}
}

func TestEvent_String(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		contains string
	}{
		{"note on", NoteOn(1, 60, 100), "NoteOn"},
		{"note off", NoteOff(1, 60, 0), "NoteOff"},
		{"control change", ControlChange(1, 111, 127), "ControlChange"},
		{"other", Other([]byte{0xF8}), "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.String(), tt.contains) {
				t.Errorf("Expected '%s' in '%s'", tt.contains, tt.event.String())
			}
		})
	}
}

// ============================================================
// Error Message Tests
// ============================================================

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"unknown code", &UnknownCodeError{Code: 50, Position: 2}, "unknown code 50"},
		{"spurious stop", &SpuriousStopError{}, "no packet in progress"},
		{"role conflict", &RoleConflictError{Role: RoleTransmitter, Code: StopCode}, "transmitter"},
		{"partial discard", &PartialDiscardError{Discarded: []Code{5, 6}}, "2 buffered codes discarded"},
		{"unterminated", &UnterminatedPacketError{Len: 10, Max: 5}, "exceeded 5 codes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("Expected '%s' in '%s'", tt.contains, tt.err.Error())
			}
		})
	}
}
