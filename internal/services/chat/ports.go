package chat

import (
	"github.com/hanneswrnr/glasschadenmelden/internal/models"
	modelChat "github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
)

// MessageStore is the durable ordered log of a claim's messages.
type MessageStore interface {
	Create(message *modelChat.Message) error
	ListByClaim(claimID string) ([]modelChat.Message, error)
}

// AttachmentRecordStore persists attachment metadata.
type AttachmentRecordStore interface {
	Create(attachment *modelChat.MessageAttachment) error
	GetByMessageIDs(messageIDs []string) (map[string][]modelChat.MessageAttachment, error)
}

// ClaimStore supplies the collaborator claim records owning conversations.
type ClaimStore interface {
	GetByID(id string) (*models.Claim, error)
	IsParticipant(userID, claimID string) (bool, error)
}

// IdentityStore resolves user identities for sender labeling.
type IdentityStore interface {
	GetByID(id string) (*models.User, error)
	GetByIDs(ids []string) ([]models.User, error)
}

// Notifier receives a session's outbound notices, addressed to the session's
// own viewer. Implementations must not block; the websocket layer fans these
// out to the recipient's connections.
type Notifier interface {
	// NewMessage announces a feed-delivered message from another participant.
	NewMessage(claimID, recipientID string, message dto.MessageResponse)
	// SendFailed announces that a message send was rolled back.
	SendFailed(claimID, recipientID string, err error)
}

// NopNotifier discards all notices.
type NopNotifier struct{}

func (NopNotifier) NewMessage(string, string, dto.MessageResponse) {}
func (NopNotifier) SendFailed(string, string, error)               {}
