package cantus

// Transmitter frames payloads for the wire. It owns the fixed controller
// number and MIDI channel its sideband rides on; the resulting events are
// handed to whatever MIDI sink the caller uses.
type Transmitter struct {
	controlNumber uint8
	channel       uint8
}

// NewTransmitter returns a transmitter emitting on the given reserved
// controller number and MIDI channel (0-15)
func NewTransmitter(controlNumber, channel uint8) *Transmitter {
	return &Transmitter{controlNumber: controlNumber, channel: channel}
}

// ControlNumber returns the reserved controller number
func (t *Transmitter) ControlNumber() uint8 {
	return t.controlNumber
}

// Channel returns the MIDI channel transmissions are emitted on
func (t *Transmitter) Channel() uint8 {
	return t.channel
}

// Encode frames payload codes as a run of Control Change events:
// START, the payload in order, STOP. Payload codes equal to a sentinel
// value would corrupt framing, so 0 and 127 are never valid payload; they
// are emitted as-is and the receiving side will report them.
func (t *Transmitter) Encode(codes []Code) []Event {
	events := make([]Event, 0, len(codes)+2)
	events = append(events, ControlChange(t.channel, t.controlNumber, uint8(StartCode)))
	for _, c := range codes {
		events = append(events, ControlChange(t.channel, t.controlNumber, uint8(c)))
	}
	events = append(events, ControlChange(t.channel, t.controlNumber, uint8(StopCode)))
	return events
}

// EncodePacket frames a packet's payload for the wire
func (t *Transmitter) EncodePacket(p *Packet) []Event {
	return t.Encode(p.codes)
}

// HandleEvent is the transmitter's half of the shared event chain: a
// transmitter never decodes, so inbound sideband traffic on its controller
// number is consumed rather than forwarded. A STOP sentinel arriving here
// means some peer believes this node is a receiver and is reported as a
// role conflict; other codes are dropped quietly since they may be echoes
// of this node's own output.
func (t *Transmitter) HandleEvent(ev Event) (forward bool, err error) {
	if !ev.IsSideband(t.controlNumber) {
		return true, nil
	}
	if Code(ev.Value) == StopCode {
		return false, &RoleConflictError{Role: RoleTransmitter, Code: StopCode}
	}
	return false, nil
}
