package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config represents logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Environment string // development, production, test
}

// Init configures the global zerolog logger.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Environment == "development" || cfg.Environment == "dev" {
		// Pretty console output for development
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
		return
	}

	// JSON output for production for better parsing
	log.Logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
