package ws

import (
	"sync"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
)

// Event is the envelope pushed to websocket clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Manager tracks connected clients per claim room and implements the chat
// service's Notifier, fanning session notices out to the recipient's
// connections.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{} // claimID -> clients
}

func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	if _, ok := m.rooms[client.ClaimID]; !ok {
		m.rooms[client.ClaimID] = make(map[*Client]struct{})
	}
	m.rooms[client.ClaimID][client] = struct{}{}
	total := len(m.rooms[client.ClaimID])
	m.mu.Unlock()

	logger.Info("ws client joined claim room",
		"claim_id", client.ClaimID, "user_id", client.UserID, "room_size", total)
}

func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	if clients, ok := m.rooms[client.ClaimID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.Send)
			if len(clients) == 0 {
				delete(m.rooms, client.ClaimID)
			}
		}
	}
	m.mu.Unlock()
}

// NewMessage pushes a feed-delivered message to the recipient's connections
// in the claim room.
func (m *Manager) NewMessage(claimID, recipientID string, message dto.MessageResponse) {
	m.deliver(claimID, recipientID, Event{Type: "new_message", Data: message})
}

// SendFailed informs the recipient that their send was rolled back.
func (m *Manager) SendFailed(claimID, recipientID string, err error) {
	m.deliver(claimID, recipientID, Event{
		Type: "send_failed",
		Data: map[string]string{"error": err.Error()},
	})
}

func (m *Manager) deliver(claimID, recipientID string, event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for client := range m.rooms[claimID] {
		if client.UserID != recipientID {
			continue
		}
		select {
		case client.Send <- event:
		default:
			// Client not draining its channel; drop the event rather than
			// block the session goroutine.
			logger.Warn("ws client send buffer full, event dropped",
				"claim_id", claimID, "user_id", recipientID)
		}
	}
}

// RoomSize returns the number of connections in a claim room.
func (m *Manager) RoomSize(claimID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[claimID])
}
