package chat

import (
	"sync"
	"time"

	"github.com/hanneswrnr/glasschadenmelden/internal/models"
	"github.com/hanneswrnr/glasschadenmelden/internal/realtime"
	"github.com/hanneswrnr/glasschadenmelden/pkg/apperrors"
)

// Service opens and tracks chat sessions, one per (claim, viewer). The same
// session backs both the HTTP surface and a websocket connection; releasing
// the last reference closes the feed subscription.
type Service struct {
	Claims        ClaimStore
	Messages      MessageStore
	Users         IdentityStore
	Attachments   *AttachmentService
	Feed          realtime.Feed
	Notifier      Notifier
	RetentionDays int

	mu       sync.Mutex
	sessions map[string]*sessionRef
}

type sessionRef struct {
	session *Session
	refs    int
}

func NewService(claims ClaimStore, messages MessageStore, users IdentityStore, attachments *AttachmentService, feed realtime.Feed, notifier Notifier, retentionDays int) *Service {
	return &Service{
		Claims:        claims,
		Messages:      messages,
		Users:         users,
		Attachments:   attachments,
		Feed:          feed,
		Notifier:      notifier,
		RetentionDays: retentionDays,
		sessions:      make(map[string]*sessionRef),
	}
}

func sessionKey(claimID, userID string) string {
	return claimID + "|" + userID
}

// Open returns the viewer's session for a claim, creating it on first use.
// Versicherung and Werkstatt users must be participants of the claim; admins
// may open any conversation. Every Open must be paired with a Release.
func (s *Service) Open(claimID, userID string, role models.UserRole) (*Session, error) {
	claim, err := s.Claims.GetByID(claimID)
	if err != nil {
		return nil, apperrors.NewNotFoundError("claim", "Claim not found")
	}

	if role != models.UserRoleAdmin {
		isParticipant, err := s.Claims.IsParticipant(userID, claimID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if !isParticipant {
			return nil, apperrors.NewForbiddenError("You are not a participant of this claim")
		}
	}

	key := sessionKey(claimID, userID)

	s.mu.Lock()
	if ref, ok := s.sessions[key]; ok {
		ref.refs++
		s.mu.Unlock()
		return ref.session, nil
	}
	s.mu.Unlock()

	session, err := OpenSession(SessionParams{
		ClaimID:       claimID,
		UserID:        userID,
		Role:          role,
		CompletedAt:   claim.CompletedAt,
		ReadOnly:      claim.IsReadOnly(),
		RetentionDays: s.RetentionDays,
	}, SessionDeps{
		Messages:    s.Messages,
		Users:       s.Users,
		Attachments: s.Attachments,
		Feed:        s.Feed,
		Notifier:    s.Notifier,
		Now:         time.Now,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Another goroutine may have opened the same session meanwhile; keep the
	// first one and fold this open into it.
	if ref, ok := s.sessions[key]; ok {
		ref.refs++
		s.mu.Unlock()
		session.Close()
		return ref.session, nil
	}
	s.sessions[key] = &sessionRef{session: session, refs: 1}
	s.mu.Unlock()

	return session, nil
}

// Release drops one reference to the viewer's session and tears it down when
// the last reference is gone.
func (s *Service) Release(claimID, userID string) {
	key := sessionKey(claimID, userID)

	s.mu.Lock()
	ref, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	ref.refs--
	if ref.refs > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, key)
	s.mu.Unlock()

	ref.session.Close()
}

// OpenCount returns the number of live sessions. Used by tests and the
// health endpoint.
func (s *Service) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
