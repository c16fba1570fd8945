// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

// Receiver consumes a MIDI event stream, strips sideband traffic out of
// it, and reassembles packets. Everything that is not sideband passes
// through untouched.
//
// The framing machine has two states. Idle: payload codes are dropped, a
// STOP is reported as spurious, a START arms the buffer. Receiving: codes
// accumulate until a STOP completes the packet; a second START discards
// the partial buffer and re-arms.
//
// A Receiver is not safe for concurrent use. Drive it from a single
// goroutine, the way a MIDI callback already does.
type Receiver struct {
	controlNumber uint8
	channel       int
	state         int
	buffer        []Code
	interp        *Interpreter
	maxPayload    int
}

// NewReceiver returns an idle receiver listening on the given reserved
// controller number. It matches all channels and interprets strictly; see
// SetChannel and SetLenient.
func NewReceiver(controlNumber uint8) *Receiver {
	return &Receiver{
		controlNumber: controlNumber,
		channel:       -1,
		state:         stateIdle,
		interp:        NewInterpreter(true),
	}
}

// SetChannel restricts the sideband to one MIDI channel (0-15). Reserved
// controller events on other channels are forwarded like ordinary traffic.
func (r *Receiver) SetChannel(channel uint8) {
	r.channel = int(channel)
}

// SetLenient switches unknown-code handling. Lenient receivers still
// report the error but deliver the packet with unknown codes skipped.
func (r *Receiver) SetLenient(lenient bool) {
	r.interp = NewInterpreter(!lenient)
}

// SetMaxPayload caps the payload buffer. When a packet exceeds n codes
// without a STOP the buffer is discarded and an UnterminatedPacketError
// reported. Zero (the default) means unbounded.
func (r *Receiver) SetMaxPayload(n int) {
	r.maxPayload = n
}

// ControlNumber returns the reserved controller number
func (r *Receiver) ControlNumber() uint8 {
	return r.controlNumber
}

// Armed reports whether a packet is in progress
func (r *Receiver) Armed() bool {
	return r.state == stateReceiving
}

// BufferLen returns the number of payload codes buffered so far
func (r *Receiver) BufferLen() int {
	return len(r.buffer)
}

// Reset discards any packet in progress and returns to idle
func (r *Receiver) Reset() {
	r.state = stateIdle
	r.buffer = r.buffer[:0]
}

// HandleEvent feeds one MIDI event through the receiver.
//
// forward=true means the event is ordinary traffic the caller should pass
// downstream unchanged. forward=false means the event was sideband and has
// been consumed. A completed packet, when one decodes, comes back in pkt;
// protocol problems come back in err. All errors are non-fatal; the
// receiver is always left in a consistent state and the caller should keep
// feeding events.
func (r *Receiver) HandleEvent(ev Event) (pkt *Packet, forward bool, err error) {
	if !ev.IsSideband(r.controlNumber) {
		return nil, true, nil
	}
	if r.channel >= 0 && int(ev.Channel) != r.channel {
		return nil, true, nil
	}
	pkt, err = r.HandleCode(Code(ev.Value))
	return pkt, false, err
}

// HandleCode feeds one already-extracted sideband code through the framing
// machine. HandleEvent calls this after the channel and controller checks;
// it is exported for callers that receive codes without MIDI framing, such
// as feed tailers and tests.
func (r *Receiver) HandleCode(c Code) (*Packet, error) {
	switch r.state {
	case stateReceiving:
		switch c {
		case StartCode:
			// Re-arm: the new START wins, the partial packet is lost
			discarded := append([]Code(nil), r.buffer...)
			r.buffer = r.buffer[:0]
			return nil, &PartialDiscardError{Discarded: discarded}
		case StopCode:
			codes := append([]Code(nil), r.buffer...)
			r.buffer = r.buffer[:0]
			r.state = stateIdle
			return r.interp.Interpret(codes)
		default:
			r.buffer = append(r.buffer, c)
			if r.maxPayload > 0 && len(r.buffer) > r.maxPayload {
				n := len(r.buffer)
				r.buffer = r.buffer[:0]
				r.state = stateIdle
				return nil, &UnterminatedPacketError{Len: n, Max: r.maxPayload}
			}
			return nil, nil
		}
	default:
		switch c {
		case StartCode:
			r.state = stateReceiving
			r.buffer = r.buffer[:0]
			return nil, nil
		case StopCode:
			return nil, &SpuriousStopError{}
		default:
			// Payload with no START: dropped without comment
			return nil, nil
		}
	}
}
