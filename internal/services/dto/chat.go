package dto

import "time"

// Request/Response structures

type SendMessageRequest struct {
	Body string `json:"body" validate:"max=5000"`
}

type MessageResponse struct {
	ID            string               `json:"id"`
	ClaimID       string               `json:"claim_id"`
	SenderID      string               `json:"sender_id"`
	SenderName    string               `json:"sender_name,omitempty"`
	SenderCompany string               `json:"sender_company,omitempty"`
	SenderRole    string               `json:"sender_role,omitempty"`
	Body          string               `json:"body"`
	Attachments   []AttachmentResponse `json:"attachments"`
	CreatedAt     time.Time            `json:"created_at"`
}

type AttachmentResponse struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayMessage is a message plus its rendering flags. ShowSender is false
// for consecutive messages by the same sender inside a date group.
type DisplayMessage struct {
	MessageResponse
	ShowSender bool `json:"show_sender"`
}

// DateGroup is one calendar day's worth of messages.
type DateGroup struct {
	Date     string           `json:"date"`
	Messages []DisplayMessage `json:"messages"`
}

// ChatInfoResponse describes the conversation's read/retention state.
type ChatInfoResponse struct {
	ClaimID           string     `json:"claim_id"`
	ReadOnly          bool       `json:"read_only"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	DaysUntilDeletion *int       `json:"days_until_deletion,omitempty"`
}

// FileRejection reports a single rejected file from a multi-select; the
// remaining valid files of the same selection are unaffected.
type FileRejection struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}
