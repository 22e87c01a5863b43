package chat

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	modelChat "github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/storage"
)

// FileInput is one file handed to a send: metadata plus its content stream.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type AttachmentService struct {
	Records AttachmentRecordStore
	Files   storage.Storage
}

func NewAttachmentService(records AttachmentRecordStore, files storage.Storage) *AttachmentService {
	return &AttachmentService{Records: records, Files: files}
}

// StorageKey builds the store key for one attachment file.
func StorageKey(claimID, messageID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", claimID, messageID, fileName)
}

// AttachFiles uploads each file and creates its record, in submission order.
// A failed file is logged and skipped; it never fails the message or the
// remaining files. Returns the attachments that made it.
func (s *AttachmentService) AttachFiles(ctx context.Context, claimID, messageID string, files []FileInput) []modelChat.MessageAttachment {
	attached := make([]modelChat.MessageAttachment, 0, len(files))

	for _, file := range files {
		key := StorageKey(claimID, messageID, file.Name)

		if err := s.Files.Save(ctx, key, file.Reader, file.ContentType); err != nil {
			logger.CtxWithError(ctx, "attachment upload failed, skipping file", err,
				"message_id", messageID, "file_name", file.Name)
			continue
		}

		attachment := modelChat.MessageAttachment{
			ID:        uuid.New().String(),
			MessageID: messageID,
			FilePath:  key,
			FileName:  file.Name,
			FileType:  file.ContentType,
			FileSize:  file.Size,
			CreatedAt: time.Now(),
		}

		if err := s.Records.Create(&attachment); err != nil {
			logger.CtxWithError(ctx, "attachment record creation failed, skipping file", err,
				"message_id", messageID, "file_name", file.Name)
			// The uploaded blob is orphaned; the retention purge collects it
			// with the rest of the claim's files.
			continue
		}

		attached = append(attached, attachment)
	}

	return attached
}

// GetByMessageID returns one message's attachments.
func (s *AttachmentService) GetByMessageID(messageID string) ([]modelChat.MessageAttachment, error) {
	byMessage, err := s.Records.GetByMessageIDs([]string{messageID})
	if err != nil {
		return nil, err
	}
	return byMessage[messageID], nil
}
