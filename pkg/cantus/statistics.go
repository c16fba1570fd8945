// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Statistics accumulates counters over a receive session. One Update call
// per event keeps it current; CalculateRates derives the per-second rates
// before display. Not safe for concurrent use.
type Statistics struct {
	StartTime time.Time

	TotalEvents     uint64
	ForwardedEvents uint64
	SidebandEvents  uint64

	PacketsDecoded uint64
	ScalePackets   uint64
	ChordPackets   uint64
	DecodeFailures uint64

	UnknownCodes      uint64
	SpuriousStops     uint64
	PartialDiscards   uint64
	RoleConflicts     uint64
	UnterminatedDrops uint64
	AnomaliesSeen     uint64

	MaxBufferLen int

	PacketRate float64
	ErrorRate  float64
}

// NewStatistics returns zeroed statistics with the clock started
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// Update records the outcome of one event passed through a receiver
func (s *Statistics) Update(pkt *Packet, forwarded bool, err error, anomalies []ValidationError) {
	s.TotalEvents++
	if forwarded {
		s.ForwardedEvents++
	} else {
		s.SidebandEvents++
	}

	if pkt != nil {
		s.PacketsDecoded++
		switch pkt.Kind() {
		case PacketScale:
			s.ScalePackets++
		case PacketChord:
			s.ChordPackets++
		}
	}
	s.AnomaliesSeen += uint64(len(anomalies))

	if err == nil {
		return
	}
	var unknownErr *UnknownCodeError
	var stopErr *SpuriousStopError
	var discardErr *PartialDiscardError
	var roleErr *RoleConflictError
	var untermErr *UnterminatedPacketError
	switch {
	case errors.As(err, &unknownErr):
		s.UnknownCodes++
		if pkt == nil {
			s.DecodeFailures++
		}
	case errors.As(err, &stopErr):
		s.SpuriousStops++
	case errors.As(err, &discardErr):
		s.PartialDiscards++
	case errors.As(err, &roleErr):
		s.RoleConflicts++
	case errors.As(err, &untermErr):
		s.UnterminatedDrops++
	}
}

// RecordBufferLen tracks the largest payload buffer seen
func (s *Statistics) RecordBufferLen(n int) {
	if n > s.MaxBufferLen {
		s.MaxBufferLen = n
	}
}

// CalculateRates computes per-second packet and error rates over the
// session so far
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return
	}
	errorTotal := s.UnknownCodes + s.SpuriousStops + s.PartialDiscards +
		s.RoleConflicts + s.UnterminatedDrops
	s.PacketRate = float64(s.PacketsDecoded) / elapsed
	s.ErrorRate = float64(errorTotal) / elapsed
}

// String renders a statistics report
func (s *Statistics) String() string {
	elapsed := time.Since(s.StartTime).Seconds()
	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", elapsed)
	fmt.Fprintf(&b, "Events:      %d total, %d forwarded, %d sideband\n",
		s.TotalEvents, s.ForwardedEvents, s.SidebandEvents)
	fmt.Fprintf(&b, "Packets:     %d decoded (%d scale, %d chord), %d failed\n",
		s.PacketsDecoded, s.ScalePackets, s.ChordPackets, s.DecodeFailures)
	fmt.Fprintf(&b, "Errors:      %d unknown code, %d spurious stop, %d partial discard\n",
		s.UnknownCodes, s.SpuriousStops, s.PartialDiscards)
	fmt.Fprintf(&b, "             %d role conflict, %d unterminated\n",
		s.RoleConflicts, s.UnterminatedDrops)
	fmt.Fprintf(&b, "Anomalies:   %d\n", s.AnomaliesSeen)
	fmt.Fprintf(&b, "Max buffer:  %d codes\n", s.MaxBufferLen)
	fmt.Fprintf(&b, "Rates:       %.2f packets/s, %.2f errors/s\n", s.PacketRate, s.ErrorRate)
	return b.String()
}

// Reset zeroes every counter and restarts the clock
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
