package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/hanneswrnr/glasschadenmelden/internal/models"
	modelChat "github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
)

type fakeMessageStore struct {
	mu          sync.Mutex
	messages    []modelChat.Message
	failCreate  error
	blockCreate chan struct{} // when set, Create waits until the channel closes
}

func (s *fakeMessageStore) Create(m *modelChat.Message) error {
	if s.blockCreate != nil {
		<-s.blockCreate
	}
	if s.failCreate != nil {
		return s.failCreate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *fakeMessageStore) ListByClaim(claimID string) ([]modelChat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []modelChat.Message
	for _, m := range s.messages {
		if m.ClaimID == claimID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMessageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type fakeAttachmentStore struct {
	mu          sync.Mutex
	attachments []modelChat.MessageAttachment
	failCreate  error
}

func (s *fakeAttachmentStore) Create(a *modelChat.MessageAttachment) error {
	if s.failCreate != nil {
		return s.failCreate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, *a)
	return nil
}

func (s *fakeAttachmentStore) GetByMessageIDs(messageIDs []string) (map[string][]modelChat.MessageAttachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[string][]modelChat.MessageAttachment)
	for _, a := range s.attachments {
		if _, ok := wanted[a.MessageID]; ok {
			out[a.MessageID] = append(out[a.MessageID], a)
		}
	}
	return out, nil
}

// fakeBlobStore implements storage.Storage in memory. Saving a key whose
// file name is listed in failNames fails.
type fakeBlobStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	failNames map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Save(_ context.Context, path string, reader io.Reader, _ string) error {
	if s.failNames != nil {
		parts := strings.Split(path, "/")
		if s.failNames[parts[len(parts)-1]] {
			return errors.New("upload failed")
		}
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = data
	return nil
}

func (s *fakeBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}

func (s *fakeBlobStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[path]
	return ok, nil
}

func (s *fakeBlobStore) GetURL(_ context.Context, path string) (string, error) {
	return "/api/v1/files/" + path, nil
}

func (s *fakeBlobStore) GetSize(_ context.Context, path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	if !ok {
		return 0, errors.New("not found")
	}
	return int64(len(data)), nil
}

type fakeIdentityStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeIdentityStore(users ...models.User) *fakeIdentityStore {
	s := &fakeIdentityStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeIdentityStore) GetByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &u, nil
}

func (s *fakeIdentityStore) GetByIDs(ids []string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type notifierCall struct {
	claimID     string
	recipientID string
	message     dto.MessageResponse
	err         error
}

type recordingNotifier struct {
	mu         sync.Mutex
	newMessage []notifierCall
	sendFailed []notifierCall
}

func (n *recordingNotifier) NewMessage(claimID, recipientID string, message dto.MessageResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newMessage = append(n.newMessage, notifierCall{claimID: claimID, recipientID: recipientID, message: message})
}

func (n *recordingNotifier) SendFailed(claimID, recipientID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sendFailed = append(n.sendFailed, notifierCall{claimID: claimID, recipientID: recipientID, err: err})
}

func (n *recordingNotifier) newMessageCalls() []notifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifierCall(nil), n.newMessage...)
}

func (n *recordingNotifier) sendFailedCalls() []notifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifierCall(nil), n.sendFailed...)
}

type fakeClaimStore struct {
	claims       map[string]*models.Claim
	participants map[string][]string // claimID -> userIDs
}

func newFakeClaimStore() *fakeClaimStore {
	return &fakeClaimStore{
		claims:       make(map[string]*models.Claim),
		participants: make(map[string][]string),
	}
}

func (s *fakeClaimStore) add(claim *models.Claim, participantIDs ...string) {
	s.claims[claim.ID] = claim
	s.participants[claim.ID] = participantIDs
}

func (s *fakeClaimStore) GetByID(id string) (*models.Claim, error) {
	claim, ok := s.claims[id]
	if !ok {
		return nil, errors.New("claim not found")
	}
	return claim, nil
}

func (s *fakeClaimStore) IsParticipant(userID, claimID string) (bool, error) {
	for _, id := range s.participants[claimID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func testUser(id, name, company string, role models.UserRole) models.User {
	u := models.User{DisplayName: name, CompanyName: company, Role: role}
	u.ID = id
	return u
}
