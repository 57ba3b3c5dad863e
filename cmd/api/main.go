package main

import (
	"os"
	_ "time/tzdata" // embedded zone data for block timezones

	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/afterschool/sessions-api/internal/server"
)

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
