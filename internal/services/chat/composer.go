package chat

import (
	"strings"

	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
)

const (
	// MaxAttachmentsPerMessage caps the pending-file set of one send.
	MaxAttachmentsPerMessage = 5
	// MaxAttachmentSize is the per-file limit: 5 MiB.
	MaxAttachmentSize = 5 * 1024 * 1024
)

var allowedAttachmentTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// PendingFile is a candidate attachment before upload.
type PendingFile struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidateFile checks one file against the MIME whitelist and size limit.
// Returns nil when the file is acceptable.
func ValidateFile(file PendingFile) *dto.FileRejection {
	if _, ok := allowedAttachmentTypes[file.ContentType]; !ok {
		return &dto.FileRejection{
			FileName: file.Name,
			Reason:   "unsupported file type: " + file.ContentType,
		}
	}
	if file.Size > MaxAttachmentSize {
		return &dto.FileRejection{
			FileName: file.Name,
			Reason:   "file exceeds the 5 MiB limit",
		}
	}
	return nil
}

// Composer collects text and up to MaxAttachmentsPerMessage files before a
// send is handed to the session.
type Composer struct {
	text    string
	pending []PendingFile
}

func NewComposer() *Composer {
	return &Composer{}
}

func (c *Composer) SetText(text string) {
	c.text = text
}

func (c *Composer) Text() string {
	return c.text
}

// AddFiles validates a selection file by file. Invalid files are rejected
// individually and reported; the rest of the selection is still accepted.
// Files beyond the cap are silently truncated, first-come wins.
func (c *Composer) AddFiles(files []PendingFile) []dto.FileRejection {
	var rejections []dto.FileRejection

	for _, file := range files {
		if rejection := ValidateFile(file); rejection != nil {
			rejections = append(rejections, *rejection)
			continue
		}
		c.pending = append(c.pending, file)
	}

	if len(c.pending) > MaxAttachmentsPerMessage {
		c.pending = c.pending[:MaxAttachmentsPerMessage]
	}

	return rejections
}

// Pending returns the accepted files in selection order.
func (c *Composer) Pending() []PendingFile {
	out := make([]PendingFile, len(c.pending))
	copy(out, c.pending)
	return out
}

// Reset clears text and pending files after a successful send.
func (c *Composer) Reset() {
	c.text = ""
	c.pending = nil
}

// CanSend reports whether submission is enabled: trimmed text non-empty or at
// least one pending file, and no send currently in flight.
func (c *Composer) CanSend(isSending bool) bool {
	if isSending {
		return false
	}
	return strings.TrimSpace(c.text) != "" || len(c.pending) > 0
}
