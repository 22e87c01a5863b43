package chat

import (
	"gorm.io/gorm"

	"github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// Create persists a new message.
func (r *MessageRepository) Create(message *chat.Message) error {
	return r.DB.Create(message).Error
}

// ListByClaim returns a claim's messages ordered ascending by creation time.
// The database timestamp is authoritative for ordering, not client arrival.
func (r *MessageRepository) ListByClaim(claimID string) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.DB.Where("claim_id = ?", claimID).Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// GetByID returns one message with its attachments preloaded.
func (r *MessageRepository) GetByID(id string) (*chat.Message, error) {
	var msg chat.Message
	err := r.DB.Preload("Attachments").First(&msg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteByClaim removes all messages of a claim. Retention worker only.
func (r *MessageRepository) DeleteByClaim(claimID string) (int64, error) {
	result := r.DB.Where("claim_id = ?", claimID).Delete(&chat.Message{})
	return result.RowsAffected, result.Error
}
