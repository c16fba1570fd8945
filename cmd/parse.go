// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Velatura/sideband/pkg/cantus"
)

// Flag value parsing for the send and compose commands. Names are
// case-insensitive and accept the common musical spellings.

var tonicNames = map[string]cantus.Tonic{
	"c":  cantus.TonicC,
	"c#": cantus.TonicCSharp,
	"db": cantus.TonicCSharp,
	"d":  cantus.TonicD,
	"d#": cantus.TonicDSharp,
	"eb": cantus.TonicDSharp,
	"e":  cantus.TonicE,
	"f":  cantus.TonicF,
	"f#": cantus.TonicFSharp,
	"gb": cantus.TonicFSharp,
	"g":  cantus.TonicG,
	"g#": cantus.TonicGSharp,
	"ab": cantus.TonicGSharp,
	"a":  cantus.TonicA,
	"a#": cantus.TonicASharp,
	"bb": cantus.TonicASharp,
	"b":  cantus.TonicB,
}

func parseTonic(s string) (cantus.Tonic, error) {
	if t, ok := tonicNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown tonic %q (use C, C#, Db, D, ... B)", s)
}

var scaleNames = map[string]cantus.ScaleType{
	"ionian":     cantus.ScaleIonian,
	"major":      cantus.ScaleIonian,
	"dorian":     cantus.ScaleDorian,
	"phrygian":   cantus.ScalePhrygian,
	"lydian":     cantus.ScaleLydian,
	"mixolydian": cantus.ScaleMixolydian,
	"aeolian":    cantus.ScaleAeolian,
	"minor":      cantus.ScaleAeolian,
	"locrian":    cantus.ScaleLocrian,
}

func parseScaleType(s string) (cantus.ScaleType, error) {
	if st, ok := scaleNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return 0, fmt.Errorf("unknown scale %q (use ionian, dorian, phrygian, lydian, mixolydian, aeolian, locrian)", s)
}

func parseAccidental(s string) (cantus.Accidental, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "b":
		return cantus.AccidentalFlat, nil
	case "natural", "nat", "n":
		return cantus.AccidentalNatural, nil
	case "sharp", "#", "s":
		return cantus.AccidentalSharp, nil
	}
	return 0, fmt.Errorf("unknown accidental %q (use flat, natural, sharp)", s)
}

var romanDegrees = map[string]cantus.Degree{
	"i": cantus.Degree1, "ii": cantus.Degree2, "iii": cantus.Degree3,
	"iv": cantus.Degree4, "v": cantus.Degree5, "vi": cantus.Degree6,
	"vii": cantus.Degree7,
}

func parseDegree(s string) (cantus.Degree, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if d, ok := romanDegrees[v]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 7 {
		return cantus.Degree(n), nil
	}
	return 0, fmt.Errorf("unknown degree %q (use 1-7 or I-VII)", s)
}

var qualityNames = map[string]cantus.Quality{
	"dim":        cantus.QualityDiminished,
	"diminished": cantus.QualityDiminished,
	"min":        cantus.QualityMinor,
	"minor":      cantus.QualityMinor,
	"m":          cantus.QualityMinor,
	"maj":        cantus.QualityMajor,
	"major":      cantus.QualityMajor,
	"aug":        cantus.QualityAugmented,
	"augmented":  cantus.QualityAugmented,
	"sus2":       cantus.QualitySus2,
	"sus4":       cantus.QualitySus4,
}

func parseQuality(s string) (cantus.Quality, error) {
	if q, ok := qualityNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return q, nil
	}
	return 0, fmt.Errorf("unknown quality %q (use dim, min, maj, aug, sus2, sus4)", s)
}

var extGroups = map[string]cantus.ExtGroup{
	"5": cantus.Ext5th, "7": cantus.Ext7th, "9": cantus.Ext9th,
	"11": cantus.Ext11th, "13": cantus.Ext13th,
}

// parseExtension reads forms like "b9", "9", "nat9", "#11", "add13".
func parseExtension(s string) (cantus.Extension, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	variant := cantus.ExtNatural
	switch {
	case strings.HasPrefix(v, "add"):
		variant = cantus.ExtAdd
		v = v[3:]
	case strings.HasPrefix(v, "nat"):
		variant = cantus.ExtNatural
		v = v[3:]
	case strings.HasPrefix(v, "b"):
		variant = cantus.ExtFlat
		v = v[1:]
	case strings.HasPrefix(v, "#"):
		variant = cantus.ExtSharp
		v = v[1:]
	case strings.HasPrefix(v, "s"):
		variant = cantus.ExtSharp
		v = v[1:]
	}

	group, ok := extGroups[v]
	if !ok {
		return cantus.Extension{}, fmt.Errorf("unknown extension %q (use e.g. b9, 9, #11, add13)", s)
	}

	ext := cantus.Extension{Group: group, Variant: variant}
	if _, ok := cantus.ExtensionCode(ext); !ok {
		return cantus.Extension{}, fmt.Errorf("extension %q has no code (add applies to 9, 11, 13 only)", s)
	}
	return ext, nil
}

// parseCodes reads a comma- or space-separated list of raw payload codes.
// Sentinel values are rejected; the transmitter adds its own framing.
func parseCodes(s string) ([]cantus.Code, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no codes given")
	}

	codes := make([]cantus.Code, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid code %q: %v", f, err)
		}
		if n < 1 || n > 126 {
			return nil, fmt.Errorf("code %d out of range (1-126; 0 and 127 are framing sentinels)", n)
		}
		codes = append(codes, cantus.Code(n))
	}
	return codes, nil
}
