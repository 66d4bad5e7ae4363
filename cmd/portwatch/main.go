package main

import (
	"os"

	"github.com/portwatch/pkg/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("PORTWATCH_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := cmd.Run(); err != nil {
		log.Error().Err(err).Msg("portwatch failed")
		os.Exit(1)
	}
}
