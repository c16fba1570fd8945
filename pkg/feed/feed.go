// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

// Package feed defines the bridge wire format: decoded sideband traffic
// re-published over a WebSocket as CBOR messages. Every message is a
// 2-element array [msg_type, payload_map] with small integer map keys, so
// consumers in any language can pick out the fields they care about.
package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Velatura/sideband/pkg/cantus"
)

// Version identifies the feed format. Bumped when payload layouts change.
const Version = 1

// Message types
const (
	MsgHello  uint8 = 0x01
	MsgPacket uint8 = 0x02
	MsgError  uint8 = 0x03
	MsgStats  uint8 = 0x04
)

// Hello payload keys
const (
	helloKeyVersion = 0
	helloKeyControl = 1
	helloKeyChannel = 2
)

// Packet payload keys
const (
	packetKeyCodes     = 0
	packetKeyFormatted = 1
	packetKeyUnixMilli = 2
)

// Error payload keys
const (
	errorKeyMessage  = 0
	errorKeyCode     = 1
	errorKeyPosition = 2
)

// Stats payload keys
const (
	statsKeyEvents  = 0
	statsKeyPackets = 1
	statsKeyErrors  = 2
	statsKeyRate    = 3
)

// EncodeMessage builds a feed message: [msg_type, payload_map]. A nil
// payload encodes as CBOR null.
func EncodeMessage(msgType uint8, payload map[int]interface{}) ([]byte, error) {
	var msg interface{}
	if payload == nil {
		msg = []interface{}{uint64(msgType), nil}
	} else {
		msg = []interface{}{uint64(msgType), payload}
	}
	data, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("feed: encode message type 0x%02X: %w", msgType, err)
	}
	return data, nil
}

// ParseMessage parses a feed message: [msg_type, payload_map].
// Returns the message type and decoded payload map (nil for empty payloads)
func ParseMessage(data []byte) (msgType uint8, payload map[int]interface{}, err error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("feed: empty message")
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return 0, nil, fmt.Errorf("feed: failed to decode CBOR: %w", err)
	}

	if len(msg) != 2 {
		return 0, nil, fmt.Errorf("feed: expected 2-element array, got %d elements", len(msg))
	}

	switch v := msg[0].(type) {
	case uint64:
		if v > 255 {
			return 0, nil, fmt.Errorf("feed: message type out of range: %d", v)
		}
		msgType = uint8(v)
	default:
		return 0, nil, fmt.Errorf("feed: expected uint for message type, got %T", msg[0])
	}

	if msg[1] == nil {
		return msgType, nil, nil
	}

	switch v := msg[1].(type) {
	case map[interface{}]interface{}:
		payload = make(map[int]interface{})
		for key, val := range v {
			switch k := key.(type) {
			case uint64:
				payload[int(k)] = val
			case int64:
				payload[int(k)] = val
			default:
				return 0, nil, fmt.Errorf("feed: expected integer map key, got %T", key)
			}
		}
	default:
		return 0, nil, fmt.Errorf("feed: expected map or nil for payload, got %T", msg[1])
	}

	return msgType, payload, nil
}

// NewHello builds the greeting a serving bridge sends on connect,
// announcing the feed version and which controller and channel the
// sideband rides on
func NewHello(controlNumber uint8, channel int) ([]byte, error) {
	payload := map[int]interface{}{
		helloKeyVersion: uint64(Version),
		helloKeyControl: uint64(controlNumber),
	}
	if channel >= 0 {
		payload[helloKeyChannel] = uint64(channel)
	}
	return EncodeMessage(MsgHello, payload)
}

// HelloInfo is the decoded greeting
type HelloInfo struct {
	Version       uint64
	ControlNumber uint8
	Channel       int
}

// HelloFromPayload decodes a greeting payload. Channel is -1 when the
// sender matches all channels.
func HelloFromPayload(m map[int]interface{}) (HelloInfo, error) {
	version, ok := GetMapUint(m, helloKeyVersion)
	if !ok {
		return HelloInfo{}, fmt.Errorf("feed: hello missing version")
	}
	control, ok := GetMapUint(m, helloKeyControl)
	if !ok {
		return HelloInfo{}, fmt.Errorf("feed: hello missing controller number")
	}
	info := HelloInfo{Version: version, ControlNumber: uint8(control), Channel: -1}
	if ch, ok := GetMapUint(m, helloKeyChannel); ok {
		info.Channel = int(ch)
	}
	return info, nil
}

// NewPacketMessage publishes a decoded packet: the raw payload codes (so
// tailers can re-interpret them), a formatted one-liner, and the decode
// timestamp
func NewPacketMessage(p *cantus.Packet) ([]byte, error) {
	codes := p.Codes()
	raw := make([]byte, len(codes))
	for i, c := range codes {
		raw[i] = byte(c)
	}
	payload := map[int]interface{}{
		packetKeyCodes:     raw,
		packetKeyFormatted: cantus.FormatPacket(p),
		packetKeyUnixMilli: uint64(p.Timestamp().UnixMilli()),
	}
	return EncodeMessage(MsgPacket, payload)
}

// PacketFromPayload rebuilds a packet from a feed payload by
// re-interpreting the raw codes locally
func PacketFromPayload(m map[int]interface{}) (*cantus.Packet, error) {
	raw, ok := GetMapBytes(m, packetKeyCodes)
	if !ok {
		return nil, fmt.Errorf("feed: packet message missing codes")
	}
	codes := make([]cantus.Code, len(raw))
	for i, b := range raw {
		codes[i] = cantus.Code(b)
	}
	return cantus.NewPacketFromCodes(codes...), nil
}

// PacketTimestamp extracts the original decode time from a packet payload
func PacketTimestamp(m map[int]interface{}) (time.Time, bool) {
	ms, ok := GetMapUint(m, packetKeyUnixMilli)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

// NewErrorMessage publishes a protocol error. Unknown-code errors carry
// the offending code and its payload position; other errors carry just
// their message.
func NewErrorMessage(err error) ([]byte, error) {
	payload := map[int]interface{}{
		errorKeyMessage: err.Error(),
	}
	var unknownErr *cantus.UnknownCodeError
	if errors.As(err, &unknownErr) {
		payload[errorKeyCode] = uint64(unknownErr.Code)
		payload[errorKeyPosition] = uint64(unknownErr.Position)
	}
	return EncodeMessage(MsgError, payload)
}

// ErrorFromPayload extracts the error message text
func ErrorFromPayload(m map[int]interface{}) (string, error) {
	text, ok := GetMapString(m, errorKeyMessage)
	if !ok {
		return "", fmt.Errorf("feed: error message missing text")
	}
	return text, nil
}

// NewStatsMessage publishes a statistics snapshot
func NewStatsMessage(s *cantus.Statistics) ([]byte, error) {
	errorTotal := s.UnknownCodes + s.SpuriousStops + s.PartialDiscards +
		s.RoleConflicts + s.UnterminatedDrops
	payload := map[int]interface{}{
		statsKeyEvents:  s.TotalEvents,
		statsKeyPackets: s.PacketsDecoded,
		statsKeyErrors:  errorTotal,
		statsKeyRate:    s.PacketRate,
	}
	return EncodeMessage(MsgStats, payload)
}

// StatsInfo is a decoded statistics snapshot
type StatsInfo struct {
	Events  uint64
	Packets uint64
	Errors  uint64
	Rate    float64
}

// StatsFromPayload decodes a statistics payload
func StatsFromPayload(m map[int]interface{}) (StatsInfo, error) {
	events, ok := GetMapUint(m, statsKeyEvents)
	if !ok {
		return StatsInfo{}, fmt.Errorf("feed: stats missing event count")
	}
	info := StatsInfo{Events: events}
	if v, ok := GetMapUint(m, statsKeyPackets); ok {
		info.Packets = v
	}
	if v, ok := GetMapUint(m, statsKeyErrors); ok {
		info.Errors = v
	}
	if v, ok := GetMapFloat(m, statsKeyRate); ok {
		info.Rate = v
	}
	return info, nil
}

// FormatMessageType returns the feed message type name
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgHello:
		return "HELLO"
	case MsgPacket:
		return "PACKET"
	case MsgError:
		return "ERROR"
	case MsgStats:
		return "STATS"
	default:
		return "UNKNOWN"
	}
}
