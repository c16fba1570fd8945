// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import "fmt"

// AnomalyType classifies semantic oddities in packets that framed and
// decoded correctly. Anomalies are advisory; an anomalous packet is still
// a packet.
type AnomalyType int

// Anomaly types
const (
	AnomalyEmptyPayload AnomalyType = iota
	AnomalyDuplicateCategory
	AnomalyIncompleteScale
	AnomalyRootlessChord
	AnomalyConflictingExtensions
	AnomalyMixedContext
)

// String returns the anomaly type name
func (a AnomalyType) String() string {
	names := []string{
		"EMPTY_PAYLOAD",
		"DUPLICATE_CATEGORY",
		"INCOMPLETE_SCALE",
		"ROOTLESS_CHORD",
		"CONFLICTING_EXTENSIONS",
		"MIXED_CONTEXT",
	}
	if a < AnomalyEmptyPayload || a > AnomalyMixedContext {
		return "UNKNOWN"
	}
	return names[a]
}

// ValidationError describes one anomaly found in a packet
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Type, v.Message)
}

// ValidatePacket inspects a decoded packet for semantic anomalies and
// returns them all. A nil or empty result means the packet looks sane.
func ValidatePacket(p *Packet) []ValidationError {
	if p == nil {
		return nil
	}
	var errs []ValidationError
	errs = append(errs, validatePayloadPresence(p)...)
	errs = append(errs, validateCategoryCounts(p)...)
	errs = append(errs, validateScaleContext(p)...)
	errs = append(errs, validateChordContext(p)...)
	errs = append(errs, validateContextMix(p)...)
	return errs
}

func validatePayloadPresence(p *Packet) []ValidationError {
	if p.Len() > 0 {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyEmptyPayload,
		Message: "packet framed correctly but carried no payload",
	}}
}

func validateCategoryCounts(p *Packet) []ValidationError {
	counts := make(map[Category]int)
	for _, c := range p.Codes() {
		info, ok := LookupCode(c)
		if !ok {
			continue
		}
		// Extensions repeat legitimately; every other category should
		// appear at most once per packet.
		if info.Category == CategoryExtension {
			continue
		}
		counts[info.Category]++
	}
	var errs []ValidationError
	for cat, n := range counts {
		if n > 1 {
			errs = append(errs, ValidationError{
				Type:    AnomalyDuplicateCategory,
				Message: fmt.Sprintf("%s appears %d times, last occurrence wins", cat, n),
				Details: map[string]interface{}{
					"category": cat.String(),
					"count":    n,
				},
			})
		}
	}
	return errs
}

func validateScaleContext(p *Packet) []ValidationError {
	_, hasTonic := p.Tonic()
	_, hasScale := p.Scale()
	if hasTonic == hasScale {
		return nil
	}
	missing := "scale type"
	if hasScale {
		missing = "tonic"
	}
	return []ValidationError{{
		Type:    AnomalyIncompleteScale,
		Message: fmt.Sprintf("scale context missing its %s", missing),
	}}
}

func validateChordContext(p *Packet) []ValidationError {
	chord, ok := p.Chord()
	if !ok || chord.HasDegree {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyRootlessChord,
		Message: "chord information present without a root degree",
	}}
}

func validateContextMix(p *Packet) []ValidationError {
	var errs []ValidationError
	if p.Kind() == PacketMixed {
		errs = append(errs, ValidationError{
			Type:    AnomalyMixedContext,
			Message: "packet mixes scale and chord context, senders usually separate them",
		})
	}
	chord, ok := p.Chord()
	if ok {
		seen := make(map[ExtGroup][]ExtVariant)
		for _, e := range chord.Extensions {
			seen[e.Group] = append(seen[e.Group], e.Variant)
		}
		for g, variants := range seen {
			if len(variants) > 1 {
				errs = append(errs, ValidationError{
					Type:    AnomalyConflictingExtensions,
					Message: fmt.Sprintf("%s extension altered %d times", g, len(variants)),
					Details: map[string]interface{}{
						"group":    g.String(),
						"variants": len(variants),
					},
				})
			}
		}
	}
	return errs
}
