// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Iris Vonk, Velatura
//
// Sideband - MIDI Sideband Context Transport
//
// A CLI tool for carrying musical context (key, scale, chord) between MIDI
// devices as framed Control Change packets, and for decoding, monitoring,
// and republishing that context.

package main

import (
	"os"

	"github.com/Velatura/sideband/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
