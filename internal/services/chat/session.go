package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	"github.com/hanneswrnr/glasschadenmelden/internal/models"
	modelChat "github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/realtime"
	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
	"github.com/hanneswrnr/glasschadenmelden/pkg/apperrors"
)

// DefaultRetentionDays is how long a completed claim's chat is kept before
// the purge worker collects it.
const DefaultRetentionDays = 14

// State is the session lifecycle: Loading -> Ready <-> Sending, with Closed
// after teardown. A failed history load never produces a usable session.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateSending State = "sending"
	StateClosed  State = "closed"
)

// SessionParams binds a session to one claim and one viewing user.
type SessionParams struct {
	ClaimID       string
	UserID        string
	Role          models.UserRole
	CompletedAt   *time.Time
	ReadOnly      bool
	RetentionDays int
}

// SessionDeps are the collaborator boundaries a session talks to.
type SessionDeps struct {
	Messages    MessageStore
	Users       IdentityStore
	Attachments *AttachmentService
	Feed        realtime.Feed
	Notifier    Notifier
	Now         func() time.Time
}

// entry is the tagged local representation of one message: pending (temp id,
// optimistic data) until reconciled with the persisted record. Exactly one
// entry ever exists per message.
type entry struct {
	pending bool
	tempID  string
	message dto.MessageResponse
}

// Session is the authoritative local view of one claim's conversation for one
// viewer. Feed callbacks arrive on a separate goroutine; all list access goes
// through the mutex.
type Session struct {
	params SessionParams
	deps   SessionDeps

	mu      sync.Mutex
	state   State
	sending bool
	entries []entry

	self      *models.User
	sub       realtime.Subscription
	closeOnce sync.Once
}

// OpenSession loads history, resolves the viewer's identity and subscribes to
// the claim's feed. A failed history load returns an error; the caller may
// re-open to retry, the session itself has no retry.
func OpenSession(params SessionParams, deps SessionDeps) (*Session, error) {
	if params.RetentionDays == 0 {
		params.RetentionDays = DefaultRetentionDays
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Session{
		params: params,
		deps:   deps,
		state:  StateLoading,
	}

	// Resolved once so optimistic inserts never block on a lookup. A failed
	// lookup degrades the label, not the session.
	self, err := deps.Users.GetByID(params.UserID)
	if err != nil {
		logger.Warn("chat session: could not resolve own identity", "user_id", params.UserID, "error", err)
		self = &models.User{Role: params.Role}
		self.ID = params.UserID
	}
	s.self = self

	if err := s.Reload(); err != nil {
		return nil, apperrors.NewHistoryLoadError(err)
	}

	sub, err := deps.Feed.Subscribe(params.ClaimID, s.onFeedEvent)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "chat",
			"Failed to subscribe to the claim feed", 502)
	}
	s.sub = sub

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()

	return s, nil
}

// Reload replaces the local list with the persisted history, re-sorted by the
// repository's own timestamps. Client-side append order is not trusted across
// a reload boundary.
func (s *Session) Reload() error {
	messages, err := s.deps.Messages.ListByClaim(s.params.ClaimID)
	if err != nil {
		return err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	// One identity query and one attachment query for the whole page.
	senderIDs := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	messageIDs := make([]string, 0, len(messages))
	for _, msg := range messages {
		messageIDs = append(messageIDs, msg.ID)
		if _, ok := seen[msg.SenderID]; !ok {
			seen[msg.SenderID] = struct{}{}
			senderIDs = append(senderIDs, msg.SenderID)
		}
	}

	senders := make(map[string]models.User, len(senderIDs))
	users, err := s.deps.Users.GetByIDs(senderIDs)
	if err != nil {
		return err
	}
	for _, u := range users {
		senders[u.ID] = u
	}

	attachments, err := s.deps.Attachments.Records.GetByMessageIDs(messageIDs)
	if err != nil {
		return err
	}

	entries := make([]entry, 0, len(messages))
	for _, msg := range messages {
		sender := senders[msg.SenderID]
		entries = append(entries, entry{
			message: s.messageView(msg, &sender, attachments[msg.ID]),
		})
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	return nil
}

// SendMessage persists a message with best-effort attachments.
//
// The text body is all-or-nothing: a failed persistence rolls the optimistic
// entry back. Attachments are per-file best-effort. A blank send and a send
// arriving while another is in flight are both dropped (nil, nil), not
// queued. A send on a read-only chat is rejected with a chat-closed
// error so callers can tell it apart from a transient failure.
func (s *Session) SendMessage(ctx context.Context, text string, files []FileInput) (*dto.MessageResponse, error) {
	if s.params.ReadOnly {
		return nil, apperrors.NewChatClosedError()
	}

	body := strings.TrimSpace(text)
	if body == "" && len(files) == 0 {
		return nil, nil
	}

	// The composer already caps the selection; the session still handles any
	// 0-5 gracefully and truncates beyond that.
	if len(files) > MaxAttachmentsPerMessage {
		files = files[:MaxAttachmentsPerMessage]
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, nil
	}
	s.sending = true
	s.state = StateSending

	tempID := fmt.Sprintf("temp-%d", s.deps.Now().UnixNano())
	optimistic := dto.MessageResponse{
		ID:            tempID,
		ClaimID:       s.params.ClaimID,
		SenderID:      s.params.UserID,
		SenderName:    s.self.DisplayName,
		SenderCompany: s.self.CompanyName,
		SenderRole:    string(s.self.Role),
		Body:          body,
		Attachments:   []dto.AttachmentResponse{},
		CreatedAt:     s.deps.Now(),
	}
	s.entries = append(s.entries, entry{pending: true, tempID: tempID, message: optimistic})
	s.mu.Unlock()

	msg := &modelChat.Message{
		ID:        uuid.New().String(),
		ClaimID:   s.params.ClaimID,
		SenderID:  s.params.UserID,
		Body:      body,
		CreatedAt: s.deps.Now(),
	}

	if err := s.deps.Messages.Create(msg); err != nil {
		s.mu.Lock()
		s.removeEntryLocked(tempID)
		s.sending = false
		s.state = StateReady
		s.mu.Unlock()

		s.deps.Notifier.SendFailed(s.params.ClaimID, s.params.UserID, err)
		return nil, apperrors.NewSendFailedError(err)
	}

	attached := s.deps.Attachments.AttachFiles(ctx, s.params.ClaimID, msg.ID, files)

	persisted := s.messageView(*msg, s.self, attached)

	if err := s.deps.Feed.Publish(ctx, realtime.MessageEvent{
		ID:        msg.ID,
		ClaimID:   msg.ClaimID,
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		logger.CtxWithError(ctx, "chat session: feed publish failed", err, "message_id", msg.ID)
	}

	s.mu.Lock()
	s.replaceEntryLocked(tempID, persisted)
	s.sending = false
	s.state = StateReady
	s.mu.Unlock()

	return &persisted, nil
}

// onFeedEvent handles a live insert. Self-authored events are discarded: the
// optimistic path is the only source for own messages, so exactly one
// representation of them ever appears in the list.
func (s *Session) onFeedEvent(event realtime.MessageEvent) {
	if event.ClaimID != s.params.ClaimID || event.SenderID == s.params.UserID {
		return
	}

	sender, err := s.deps.Users.GetByID(event.SenderID)
	if err != nil {
		logger.Warn("chat session: could not resolve sender of feed event",
			"sender_id", event.SenderID, "error", err)
		sender = &models.User{}
		sender.ID = event.SenderID
	}

	attachments, err := s.deps.Attachments.GetByMessageID(event.ID)
	if err != nil {
		logger.Warn("chat session: could not load attachments of feed event",
			"message_id", event.ID, "error", err)
	}

	view := s.messageView(modelChat.Message{
		ID:        event.ID,
		ClaimID:   event.ClaimID,
		SenderID:  event.SenderID,
		Body:      event.Body,
		CreatedAt: event.CreatedAt,
	}, sender, attachments)

	s.mu.Lock()
	for _, e := range s.entries {
		if e.message.ID == event.ID {
			s.mu.Unlock()
			return
		}
	}
	s.entries = append(s.entries, entry{message: view})
	s.mu.Unlock()

	s.deps.Notifier.NewMessage(s.params.ClaimID, s.params.UserID, view)
}

// Close releases the feed subscription. Idempotent; the session must not be
// left subscribed after the claim view goes away, or a remount would see
// duplicate delivery.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.sub != nil {
			s.sub.Close()
		}
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
	})
}

// Messages returns a snapshot of the local list.
func (s *Session) Messages() []dto.MessageResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dto.MessageResponse, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.message
	}
	return out
}

// Groups returns the date-grouped view of the local list.
func (s *Session) Groups() []dto.DateGroup {
	return GroupByDate(s.Messages())
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsSending reports whether a send is in flight.
func (s *Session) IsSending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// DaysUntilDeletion computes the retention countdown: nil unless the chat is
// read-only with a completion timestamp, otherwise clamped at zero. Days are
// counted on UTC boundaries. Informational only; the purge worker enforces.
func (s *Session) DaysUntilDeletion() *int {
	if !s.params.ReadOnly || s.params.CompletedAt == nil {
		return nil
	}

	elapsed := int(s.deps.Now().UTC().Sub(s.params.CompletedAt.UTC()).Hours() / 24)
	remaining := s.params.RetentionDays - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// Info returns the conversation's read/retention state.
func (s *Session) Info() dto.ChatInfoResponse {
	return dto.ChatInfoResponse{
		ClaimID:           s.params.ClaimID,
		ReadOnly:          s.params.ReadOnly,
		CompletedAt:       s.params.CompletedAt,
		DaysUntilDeletion: s.DaysUntilDeletion(),
	}
}

func (s *Session) removeEntryLocked(tempID string) {
	for i, e := range s.entries {
		if e.pending && e.tempID == tempID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *Session) replaceEntryLocked(tempID string, persisted dto.MessageResponse) {
	for i, e := range s.entries {
		if e.pending && e.tempID == tempID {
			s.entries[i] = entry{message: persisted}
			return
		}
	}
	// Entry vanished (e.g. a reload raced the send); re-append so the
	// persisted message is not lost locally.
	s.entries = append(s.entries, entry{message: persisted})
}

func (s *Session) messageView(msg modelChat.Message, sender *models.User, attachments []modelChat.MessageAttachment) dto.MessageResponse {
	views := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		views = append(views, dto.AttachmentResponse{
			ID:        a.ID,
			MessageID: a.MessageID,
			FileName:  a.FileName,
			FileType:  a.FileType,
			FileSize:  a.FileSize,
			CreatedAt: a.CreatedAt,
		})
	}

	return dto.MessageResponse{
		ID:            msg.ID,
		ClaimID:       msg.ClaimID,
		SenderID:      msg.SenderID,
		SenderName:    sender.DisplayName,
		SenderCompany: sender.CompanyName,
		SenderRole:    string(sender.Role),
		Body:          msg.Body,
		Attachments:   views,
		CreatedAt:     msg.CreatedAt,
	}
}
