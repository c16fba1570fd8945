// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/midiport"
	"github.com/Velatura/sideband/pkg/midiwire"
)

// startEventStream wires the selected input to fn as a stream of events.
// With --input the events come straight from a MIDI port; with --port or
// --url the raw bytes run through the wire parser first. fn is called from
// a single goroutine (or the MIDI driver callback), so an unsynchronized
// Receiver may live inside it.
//
// The returned Connection is non-nil only for byte transports; it is
// shared so callers can write to the same transport (serial MIDI is full
// duplex). stop ends the stream and closes the transport.
func startEventStream(fn func(cantus.Event)) (stop func(), conn Connection, desc string, err error) {
	if inputName != "" {
		in, err := midiport.FindInput(inputName)
		if err != nil {
			return nil, nil, "", err
		}
		stopListen, err := midiport.Listen(in, fn)
		if err != nil {
			return nil, nil, "", err
		}
		return stopListen, nil, fmt.Sprintf("MIDI in: %s", in.String()), nil
	}

	if portName == "" && wsURL == "" {
		return nil, nil, "", fmt.Errorf("either --input, --port, or --url must be specified")
	}

	c, info, err := OpenConnection()
	if err != nil {
		return nil, nil, "", err
	}

	done := make(chan struct{})
	go func() {
		parser := midiwire.NewParser()
		buf := make([]byte, 128)
		for {
			n, err := c.Read(buf)
			if err != nil {
				select {
				case <-done:
					return
				default:
				}
				// A closed WebSocket is permanent; serial errors may be
				// transient, so pause briefly and retry.
				if err == ErrConnectionClosed {
					log.Warn().Msg("connection closed")
					return
				}
				log.Warn().Err(err).Msg("read error")
				time.Sleep(10 * time.Millisecond)
				continue
			}

			for i := 0; i < n; i++ {
				if ev, ok := parser.Parse(buf[i]); ok {
					fn(ev)
				}
			}
		}
	}()

	stop = func() {
		close(done)
		c.Close()
	}
	return stop, c, info, nil
}

// openEventSender returns a function that emits events on the selected
// output: a MIDI port with --output, otherwise the serial or WebSocket
// byte transport.
func openEventSender() (send func(...cantus.Event) error, closer func(), desc string, err error) {
	if outputName != "" {
		out, err := midiport.FindOutput(outputName)
		if err != nil {
			return nil, nil, "", err
		}
		sendOne, err := midiport.Sender(out)
		if err != nil {
			return nil, nil, "", err
		}
		send = func(events ...cantus.Event) error {
			for _, ev := range events {
				if err := sendOne(ev); err != nil {
					return err
				}
			}
			return nil
		}
		return send, func() {}, fmt.Sprintf("MIDI out: %s", out.String()), nil
	}

	if portName == "" && wsURL == "" {
		return nil, nil, "", fmt.Errorf("either --output, --port, or --url must be specified")
	}

	c, info, err := OpenConnection()
	if err != nil {
		return nil, nil, "", err
	}
	return connSender(c), func() { c.Close() }, info, nil
}

// connSender serializes events to wire bytes and writes them in one call,
// so a framed packet leaves as a single WebSocket message.
func connSender(c Connection) func(...cantus.Event) error {
	return func(events ...cantus.Event) error {
		if len(events) == 0 {
			return nil
		}
		_, err := c.Write(midiwire.AppendEvents(nil, events...))
		return err
	}
}
