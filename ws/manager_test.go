package ws

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
)

func newTestClient(claimID, userID string) *Client {
	return &Client{
		ClaimID: claimID,
		UserID:  userID,
		Send:    make(chan Event, clientSendBuffer),
	}
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case event := <-c.Send:
		return event
	case <-time.After(time.Second):
		t.Fatal("expected an event")
		return Event{}
	}
}

func TestManager_NewMessageReachesOnlyRecipient(t *testing.T) {
	t.Parallel()

	m := NewManager()

	recipient := newTestClient("claim-1", "user-b")
	sender := newTestClient("claim-1", "user-a")
	otherClaim := newTestClient("claim-2", "user-b")
	m.Register(recipient)
	m.Register(sender)
	m.Register(otherClaim)

	m.NewMessage("claim-1", "user-b", dto.MessageResponse{ID: "m1", Body: "Hallo"})

	event := receiveEvent(t, recipient)
	assert.Equal(t, "new_message", event.Type)
	message, ok := event.Data.(dto.MessageResponse)
	require.True(t, ok)
	assert.Equal(t, "m1", message.ID)

	assert.Empty(t, sender.Send)
	assert.Empty(t, otherClaim.Send)
}

func TestManager_SendFailed(t *testing.T) {
	t.Parallel()

	m := NewManager()
	client := newTestClient("claim-1", "user-a")
	m.Register(client)

	m.SendFailed("claim-1", "user-a", errors.New("connection reset"))

	event := receiveEvent(t, client)
	assert.Equal(t, "send_failed", event.Type)
}

func TestManager_SecondConnectionOfSameViewerAlsoReceives(t *testing.T) {
	t.Parallel()

	m := NewManager()
	phone := newTestClient("claim-1", "user-a")
	desktop := newTestClient("claim-1", "user-a")
	m.Register(phone)
	m.Register(desktop)
	assert.Equal(t, 2, m.RoomSize("claim-1"))

	m.NewMessage("claim-1", "user-a", dto.MessageResponse{ID: "m1"})

	receiveEvent(t, phone)
	receiveEvent(t, desktop)
}

func TestManager_UnregisterClosesAndEmptiesRoom(t *testing.T) {
	t.Parallel()

	m := NewManager()
	client := newTestClient("claim-1", "user-a")
	m.Register(client)

	m.Unregister(client)
	m.Unregister(client) // idempotent

	assert.Equal(t, 0, m.RoomSize("claim-1"))

	_, open := <-client.Send
	assert.False(t, open, "send channel must be closed")
}

func TestManager_DeliverToEmptyRoomIsNoOp(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.NewMessage("claim-1", "user-a", dto.MessageResponse{ID: "m1"})
}
