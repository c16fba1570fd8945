// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import "fmt"

// Protocol errors are all non-fatal: they describe a malformed or
// out-of-place piece of sideband traffic, never a broken pipeline. Callers
// log them and keep going. Each is a distinct type so errors.As can route
// handling and statistics.

// UnknownCodeError reports a payload code outside every defined semantic
// range. Position is the code's index within the packet payload.
type UnknownCodeError struct {
	Code     Code
	Position int
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("cantus: unknown code %d at payload position %d", e.Code, e.Position)
}

// SpuriousStopError reports a STOP sentinel that arrived while the
// receiver was idle. The event is dropped from the forwarded stream; no
// state changes.
type SpuriousStopError struct{}

func (e *SpuriousStopError) Error() string {
	return "cantus: STOP with no packet in progress"
}

// RoleConflictError reports sideband traffic arriving at a participant
// whose role does not consume it, e.g. a STOP reaching a transmitter.
type RoleConflictError struct {
	Role Role
	Code Code
}

func (e *RoleConflictError) Error() string {
	role := "receiver"
	if e.Role == RoleTransmitter {
		role = "transmitter"
	}
	return fmt.Sprintf("cantus: %s received sideband code %d meant for the other role", role, e.Code)
}

// PartialDiscardError reports a START sentinel interrupting a packet in
// progress. The receiver re-arms on the new START; Discarded holds the
// payload codes of the abandoned packet.
type PartialDiscardError struct {
	Discarded []Code
}

func (e *PartialDiscardError) Error() string {
	return fmt.Sprintf("cantus: START during packet, %d buffered codes discarded", len(e.Discarded))
}

// UnterminatedPacketError reports a packet whose payload exceeded the
// receiver's configured maximum without a STOP arriving. The buffer is
// discarded and the receiver returns to idle.
type UnterminatedPacketError struct {
	Len int
	Max int
}

func (e *UnterminatedPacketError) Error() string {
	return fmt.Sprintf("cantus: packet exceeded %d codes without STOP, %d discarded", e.Max, e.Len)
}
