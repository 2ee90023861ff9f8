package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/dietplan/internal/config"
	"github.com/Rrens/dietplan/internal/repository/postgres"
	"github.com/Rrens/dietplan/internal/repository/sqlite"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with \"down\"")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [-steps N] up|down\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if cfg.Database.Driver == "sqlite" {
		if command != "up" {
			log.Fatal().Str("command", command).Msg("sqlite only supports up")
		}
		db, err := sqlite.Open(context.Background(), cfg.Database.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate sqlite database")
		}
		db.Close()
		return
	}

	log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Msg("Connecting to database")

	switch command {
	case "up":
		err = postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.Migrations)
	case "down":
		err = postgres.RollbackMigrations(cfg.Database.DSN(), cfg.Database.Migrations, *steps)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
