package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func initLogger(w io.Writer, verbose bool) {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Str("app", "clpl").Logger()
}
