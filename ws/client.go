package ws

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	chatService "github.com/hanneswrnr/glasschadenmelden/internal/services/chat"
)

const clientSendBuffer = 64

// IncomingMessage is the client-to-server frame.
type IncomingMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	ClaimID string
	UserID  string
	Conn    *websocket.Conn
	Send    chan Event

	Manager *Manager
	Session *chatService.Session

	// release returns the session reference to the chat service.
	release func()
}

func (c *Client) readPump() {
	defer func() {
		c.Manager.Unregister(c)
		c.release()
		c.Conn.Close()
	}()

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "claim_id", c.ClaimID, "user_id", c.UserID, "error", err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			logger.Warn("ws: malformed frame", "error", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	for event := range c.Send {
		if err := c.Conn.WriteJSON(event); err != nil {
			logger.Warn("ws write error", "claim_id", c.ClaimID, "user_id", c.UserID, "error", err)
			return
		}
	}
}

func (c *Client) handleMessage(msg IncomingMessage) {
	switch msg.Action {

	case "send_message":
		var payload struct {
			Body string `json:"body"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			logger.Warn("ws: invalid send_message payload", "error", err)
			return
		}

		// Attachments go over the HTTP endpoint; websocket sends carry text
		// only.
		sent, err := c.Session.SendMessage(context.Background(), payload.Body, nil)
		if err != nil {
			c.trySend(Event{Type: "error", Data: map[string]string{"error": err.Error()}})
			return
		}
		if sent == nil {
			// Blank or dropped by the in-flight guard.
			return
		}
		c.trySend(Event{Type: "message_sent", Data: sent})

	default:
		logger.Warn("ws: unhandled action", "action", msg.Action)
	}
}

func (c *Client) trySend(event Event) {
	select {
	case c.Send <- event:
	default:
	}
}
