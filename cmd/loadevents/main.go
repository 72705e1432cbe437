package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"scibind/internal/config"
	"scibind/internal/db"
	"scibind/internal/event"
	"scibind/internal/logger"
)

func main() {
	file := flag.String("file", "", "CSV sheet of events (Name, Division, Material Type, Image Name, Description, Category)")
	modify := flag.Bool("modify", false, "Overwrite events that already exist")
	flag.Parse()

	path := *file
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadConfig()
	cfg := config.AppConfig
	logger.Setup(cfg.Environment, cfg.LogLevel)

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("cannot open sheet")
	}
	defer f.Close()

	if err := db.ConnectDb(cfg); err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.CloseDb()
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	loader := event.NewLoader(event.NewRepository(db.AppDb), *modify)
	result, err := loader.Load(context.Background(), f)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("events not loaded")
	}

	log.Info().
		Int("created", result.Created).
		Int("modified", result.Modified).
		Int("skipped", result.Skipped).
		Msg("events loaded")
}
