// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// initLogging configures the global zerolog logger. Logs go to stderr so
// decoded packet output on stdout stays clean for piping.
func initLogging() {
	level := logLevel
	if level == "" {
		level = os.Getenv("SIDEBAND_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	}
	if logJSON {
		out = os.Stderr
	}

	log.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "sideband").Logger()

	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
	}
}
