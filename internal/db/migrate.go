package db

import (
	"github.com/rs/zerolog/log"

	"scibind/internal/binder"
	"scibind/internal/document"
	"scibind/internal/event"
	"scibind/internal/user"
)

// Migrate runs database migrations
func Migrate() error {
	err := AppDb.AutoMigrate(
		&event.Event{},
		&user.User{},
		&document.DocumentRecord{},
		&document.DocumentVersionRecord{},
		&binder.Binder{},
	)
	if err != nil {
		return err
	}

	log.Info().Msg("database schema migrated")
	return nil
}
