// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

// Package midiport connects cantus pipelines to real MIDI devices through
// the system MIDI driver. It wraps port discovery, input listening, and
// output sending; the event conversion lives in convert.go.
package midiport

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"github.com/Velatura/sideband/pkg/cantus"
)

// ListPorts returns the names of every MIDI input and output port the
// driver can see
func ListPorts() (inputs, outputs []string) {
	for _, p := range gomidi.GetInPorts() {
		inputs = append(inputs, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		outputs = append(outputs, p.String())
	}
	return inputs, outputs
}

// FindInput resolves a port name to an input port. An exact match wins;
// otherwise the first port whose name contains the string
// case-insensitively is used.
func FindInput(name string) (drivers.In, error) {
	ports := gomidi.GetInPorts()
	var names []string
	for _, p := range ports {
		if p.String() == name {
			return p, nil
		}
		names = append(names, p.String())
	}
	lower := strings.ToLower(name)
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), lower) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("midiport: no input port matching %q (available: %s)", name, availableList(names))
}

// FindOutput resolves a port name to an output port, matching like
// FindInput
func FindOutput(name string) (drivers.Out, error) {
	ports := gomidi.GetOutPorts()
	var names []string
	for _, p := range ports {
		if p.String() == name {
			return p, nil
		}
		names = append(names, p.String())
	}
	lower := strings.ToLower(name)
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), lower) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("midiport: no output port matching %q (available: %s)", name, availableList(names))
}

func availableList(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Listen opens an input port and delivers every incoming message to fn as
// a cantus event. The callback runs on the driver's thread; keep it short
// and hand the event off to a channel. The returned stop function closes
// the listener.
func Listen(in drivers.In, fn func(cantus.Event)) (func(), error) {
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		fn(MessageToEvent(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("midiport: open input %s: %w", in.String(), err)
	}
	return stop, nil
}

// Sender opens an output port and returns a function that sends cantus
// events to it
func Sender(out drivers.Out) (func(cantus.Event) error, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("midiport: open output %s: %w", out.String(), err)
	}
	return func(ev cantus.Event) error {
		return send(EventToMessage(ev))
	}, nil
}

// CloseDriver releases the system MIDI driver. Call once on shutdown.
func CloseDriver() {
	gomidi.CloseDriver()
}
