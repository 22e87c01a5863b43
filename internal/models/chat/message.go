package chat

import "time"

type Message struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClaimID   string `gorm:"index;not null"`
	SenderID  string `gorm:"index;not null"`
	Body      string `gorm:"type:text"`
	CreatedAt time.Time

	Attachments []MessageAttachment `gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string {
	return "chat.messages"
}
