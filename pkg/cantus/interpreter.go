// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura

package cantus

import "time"

// Interpreter turns a completed payload into a Packet using the code
// lookup table. It holds no per-packet state and is safe for concurrent
// use.
type Interpreter struct {
	strict bool
}

// NewInterpreter returns an interpreter. In strict mode an unknown code
// fails the whole packet; in lenient mode unknown codes are skipped and
// the packet is returned alongside the error describing the first one.
func NewInterpreter(strict bool) *Interpreter {
	return &Interpreter{strict: strict}
}

// Interpret decodes payload codes into a packet. In strict mode the packet
// is nil whenever the error is non-nil. In lenient mode the packet is
// always non-nil; a non-nil error still reports the first unknown code so
// callers can count it.
func (in *Interpreter) Interpret(codes []Code) (*Packet, error) {
	p := &Packet{
		codes:     append([]Code(nil), codes...),
		timestamp: time.Now(),
	}
	if in.strict {
		if err := p.applyCodes(true); err != nil {
			return nil, err
		}
		return p, nil
	}
	return p, p.applyCodes(false)
}
