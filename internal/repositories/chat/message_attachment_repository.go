package chat

import (
	"gorm.io/gorm"

	"github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
)

type MessageAttachmentRepository struct {
	DB *gorm.DB
}

func NewMessageAttachmentRepository(db *gorm.DB) *MessageAttachmentRepository {
	return &MessageAttachmentRepository{DB: db}
}

// Create persists one attachment record.
func (r *MessageAttachmentRepository) Create(attachment *chat.MessageAttachment) error {
	return r.DB.Create(attachment).Error
}

// GetByMessageID returns the attachments of one message.
func (r *MessageAttachmentRepository) GetByMessageID(messageID string) ([]chat.MessageAttachment, error) {
	var attachments []chat.MessageAttachment
	err := r.DB.Where("message_id = ?", messageID).Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

// GetByMessageIDs returns attachments for a whole page of messages in one
// query, keyed by message ID.
func (r *MessageAttachmentRepository) GetByMessageIDs(messageIDs []string) (map[string][]chat.MessageAttachment, error) {
	byMessage := make(map[string][]chat.MessageAttachment)
	if len(messageIDs) == 0 {
		return byMessage, nil
	}

	var attachments []chat.MessageAttachment
	err := r.DB.Where("message_id IN ?", messageIDs).Order("created_at ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}

	for _, a := range attachments {
		byMessage[a.MessageID] = append(byMessage[a.MessageID], a)
	}
	return byMessage, nil
}

// ListByClaim returns every attachment record in a claim's conversation.
// Used by the retention worker to delete the stored files before the rows.
func (r *MessageAttachmentRepository) ListByClaim(claimID string) ([]chat.MessageAttachment, error) {
	var attachments []chat.MessageAttachment
	err := r.DB.Joins("JOIN chat.messages m ON m.id = message_attachments.message_id").
		Where("m.claim_id = ?", claimID).
		Find(&attachments).Error
	return attachments, err
}

// DeleteByClaim removes all attachment rows of a claim's conversation.
func (r *MessageAttachmentRepository) DeleteByClaim(claimID string) error {
	return r.DB.Where("message_id IN (?)",
		r.DB.Table("chat.messages").Select("id").Where("claim_id = ?", claimID),
	).Delete(&chat.MessageAttachment{}).Error
}
