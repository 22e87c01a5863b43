package chat

import "time"

// MessageAttachment is immutable once created. FilePath is the store key,
// by convention <claimID>/<messageID>/<fileName>.
type MessageAttachment struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MessageID string `gorm:"index;not null"`
	FilePath  string `gorm:"not null"`
	FileName  string
	FileType  string // MIME type
	FileSize  int64
	CreatedAt time.Time
}

func (MessageAttachment) TableName() string {
	return "chat.message_attachments"
}
