package database

import (
	"gorm.io/gorm"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	"github.com/hanneswrnr/glasschadenmelden/internal/models"
	"github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
)

// Migrate creates the schema. Chat tables live in their own "chat" schema.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS chat`).Error; err != nil {
		return err
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Claim{},
		&chat.Message{},
		&chat.MessageAttachment{},
	)
	if err != nil {
		return err
	}

	logger.Info("Database migration complete")
	return nil
}
