// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import "fmt"

// CodeInfo is the decoded meaning of a single payload code. Category says
// which range the code fell in; only the field matching Category is
// meaningful.
type CodeInfo struct {
	Category   Category
	Tonic      Tonic
	ScaleType  ScaleType
	Accidental Accidental
	Degree     Degree
	Quality    Quality
	Extension  Extension
}

// codeTable maps every wire code to its meaning. Built once at package
// init and never written afterwards; all lookups go through LookupCode.
var codeTable = buildCodeTable()

func buildCodeTable() [128]struct {
	info  CodeInfo
	known bool
} {
	var t [128]struct {
		info  CodeInfo
		known bool
	}

	set := func(c Code, info CodeInfo) {
		t[c].info = info
		t[c].known = true
	}

	for c := codeTonicMin; c <= codeTonicMax; c++ {
		set(c, CodeInfo{Category: CategoryTonic, Tonic: Tonic(c - codeTonicMin)})
	}
	for c := codeScaleTypeMin; c <= codeScaleTypeMax; c++ {
		set(c, CodeInfo{Category: CategoryScaleType, ScaleType: ScaleType(c - codeScaleTypeMin)})
	}
	for c := codeAccidentalMin; c <= codeAccidentalMax; c++ {
		set(c, CodeInfo{Category: CategoryAccidental, Accidental: Accidental(c - codeAccidentalMin)})
	}
	for c := codeDegreeMin; c <= codeDegreeMax; c++ {
		set(c, CodeInfo{Category: CategoryDegree, Degree: Degree(c-codeDegreeMin) + 1})
	}
	for c := codeQualityMin; c <= codeQualityMax; c++ {
		set(c, CodeInfo{Category: CategoryQuality, Quality: Quality(c - codeQualityMin)})
	}
	for c := codeBassMin; c <= codeBassMax; c++ {
		set(c, CodeInfo{Category: CategoryAltBass, Degree: Degree(c-codeBassMin) + 1})
	}

	// Extension codes pack five groups with uneven variant counts: the
	// 5th and 7th carry flat/natural/sharp, the 9th, 11th and 13th add a
	// fourth "add" variant.
	ext := func(c Code, g ExtGroup, v ExtVariant) {
		set(c, CodeInfo{Category: CategoryExtension, Extension: Extension{Group: g, Variant: v}})
	}
	ext(108, Ext5th, ExtFlat)
	ext(109, Ext5th, ExtNatural)
	ext(110, Ext5th, ExtSharp)
	ext(111, Ext7th, ExtFlat)
	ext(112, Ext7th, ExtNatural)
	ext(113, Ext7th, ExtSharp)
	ext(114, Ext9th, ExtFlat)
	ext(115, Ext9th, ExtNatural)
	ext(116, Ext9th, ExtSharp)
	ext(117, Ext9th, ExtAdd)
	ext(118, Ext11th, ExtFlat)
	ext(119, Ext11th, ExtNatural)
	ext(120, Ext11th, ExtSharp)
	ext(121, Ext11th, ExtAdd)
	ext(122, Ext13th, ExtFlat)
	ext(123, Ext13th, ExtNatural)
	ext(124, Ext13th, ExtSharp)
	ext(125, Ext13th, ExtAdd)

	return t
}

// LookupCode resolves a wire code to its semantic meaning. The second
// return is false for codes outside every defined range; the sentinels
// START and STOP are framing, not payload, and also return false.
func LookupCode(c Code) (CodeInfo, bool) {
	if c > 127 {
		return CodeInfo{}, false
	}
	entry := codeTable[c]
	return entry.info, entry.known
}

// Encode-side mappings. Each returns the wire code for a semantic value.
// Arguments are trusted to be defined enum values; the parse layer and the
// packet builders validate before encoding.

// TonicCode returns the wire code for a tonic
func TonicCode(t Tonic) Code {
	return codeTonicMin + Code(t)
}

// ScaleTypeCode returns the wire code for a scale type
func ScaleTypeCode(s ScaleType) Code {
	return codeScaleTypeMin + Code(s)
}

// AccidentalCode returns the wire code for a root accidental
func AccidentalCode(a Accidental) Code {
	return codeAccidentalMin + Code(a)
}

// DegreeCode returns the wire code for a chord root degree
func DegreeCode(d Degree) Code {
	return codeDegreeMin + Code(d) - 1
}

// QualityCode returns the wire code for a chord quality
func QualityCode(q Quality) Code {
	return codeQualityMin + Code(q)
}

// BassCode returns the wire code for an alternate bass degree
func BassCode(d Degree) Code {
	return codeBassMin + Code(d) - 1
}

// extensionBase gives the first code of each extension group
var extensionBase = [5]Code{108, 111, 114, 118, 122}

// ExtensionCode returns the wire code for a chord extension. The second
// return is false for combinations that do not exist on the wire (add5,
// add7).
func ExtensionCode(e Extension) (Code, bool) {
	if e.Group < Ext5th || e.Group > Ext13th {
		return 0, false
	}
	if e.Variant < ExtFlat || e.Variant > ExtAdd {
		return 0, false
	}
	if e.Variant == ExtAdd && (e.Group == Ext5th || e.Group == Ext7th) {
		return 0, false
	}
	return extensionBase[e.Group] + Code(e.Variant), true
}

// Intervals returns the scale's semitone offsets from the tonic, seven
// entries starting at 0. The returned slice is a fresh copy.
func (s ScaleType) Intervals() []int {
	patterns := [7][7]int{
		{0, 2, 4, 5, 7, 9, 11}, // Ionian
		{0, 2, 3, 5, 7, 9, 10}, // Dorian
		{0, 1, 3, 5, 7, 8, 10}, // Phrygian
		{0, 2, 4, 6, 7, 9, 11}, // Lydian
		{0, 2, 4, 5, 7, 9, 10}, // Mixolydian
		{0, 2, 3, 5, 7, 8, 10}, // Aeolian
		{0, 1, 3, 5, 6, 8, 10}, // Locrian
	}
	if s < ScaleIonian || s > ScaleLocrian {
		return nil
	}
	out := make([]int, 7)
	copy(out, patterns[s][:])
	return out
}

// String returns the note name, sharps preferred for the black keys
func (t Tonic) String() string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	if t < TonicC || t > TonicB {
		return "UNKNOWN"
	}
	return names[t]
}

// String returns the mode name
func (s ScaleType) String() string {
	names := []string{"Ionian", "Dorian", "Phrygian", "Lydian", "Mixolydian", "Aeolian", "Locrian"}
	if s < ScaleIonian || s > ScaleLocrian {
		return "UNKNOWN"
	}
	return names[s]
}

// String returns the accidental name
func (a Accidental) String() string {
	names := []string{"flat", "natural", "sharp"}
	if a < AccidentalFlat || a > AccidentalSharp {
		return "UNKNOWN"
	}
	return names[a]
}

// String returns the degree as a roman numeral
func (d Degree) String() string {
	names := []string{"I", "II", "III", "IV", "V", "VI", "VII"}
	if d < Degree1 || d > Degree7 {
		return "UNKNOWN"
	}
	return names[d-1]
}

// String returns the quality name
func (q Quality) String() string {
	names := []string{"dim", "min", "maj", "aug", "sus2", "sus4"}
	if q < QualityDiminished || q > QualitySus4 {
		return "UNKNOWN"
	}
	return names[q]
}

// String returns the extension group's degree name
func (g ExtGroup) String() string {
	names := []string{"5th", "7th", "9th", "11th", "13th"}
	if g < Ext5th || g > Ext13th {
		return "UNKNOWN"
	}
	return names[g]
}

// String renders the extension in chord-symbol style, e.g. "b5", "add9"
func (e Extension) String() string {
	degrees := []string{"5", "7", "9", "11", "13"}
	if e.Group < Ext5th || e.Group > Ext13th {
		return "UNKNOWN"
	}
	deg := degrees[e.Group]
	switch e.Variant {
	case ExtFlat:
		return "b" + deg
	case ExtNatural:
		return "nat" + deg
	case ExtSharp:
		return "#" + deg
	case ExtAdd:
		return "add" + deg
	default:
		return "UNKNOWN"
	}
}

// String returns the category name
func (c Category) String() string {
	names := []string{"tonic", "scale type", "accidental", "degree", "quality", "alt bass", "extension"}
	if c < CategoryTonic || c > CategoryExtension {
		return "UNKNOWN"
	}
	return names[c]
}

// String renders the decoded meaning of one code for logs
func (ci CodeInfo) String() string {
	switch ci.Category {
	case CategoryTonic:
		return fmt.Sprintf("tonic %s", ci.Tonic)
	case CategoryScaleType:
		return fmt.Sprintf("scale %s", ci.ScaleType)
	case CategoryAccidental:
		return fmt.Sprintf("accidental %s", ci.Accidental)
	case CategoryDegree:
		return fmt.Sprintf("degree %s", ci.Degree)
	case CategoryQuality:
		return fmt.Sprintf("quality %s", ci.Quality)
	case CategoryAltBass:
		return fmt.Sprintf("bass %s", ci.Degree)
	case CategoryExtension:
		return fmt.Sprintf("extension %s", ci.Extension)
	default:
		return "UNKNOWN"
	}
}
