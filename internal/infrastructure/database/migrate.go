package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"helm-server/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the chat and study domains.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Class{},
		&entities.Assignment{},
		&entities.Note{},
		&entities.PDF{},
		&entities.Conversation{},
		&entities.Message{},
		&entities.BrainMemory{},
		&entities.BrainUpdateTask{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
