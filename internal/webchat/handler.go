// Package webchat serves the browser widget over a WebSocket, feeding turns
// into the dialogue engine synchronously.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

// Conversationalist runs one dialogue turn. Satisfied by the conversation
// engine.
type Conversationalist interface {
	HandleTurn(ctx context.Context, sessionID, text string) (string, error)
}

// Handler manages web chat connections and messages.
type Handler struct {
	engine Conversationalist
	logger *logging.Logger
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string `json:"type"` // "message", "session", "pong", "error"
	Text      string `json:"text,omitempty"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NewHandler creates a web chat handler.
func NewHandler(engine Conversationalist, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	defer conn.Close()

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	if err := websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID}); err != nil {
		return
	}
	h.logger.Info("webchat connected", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Info("webchat disconnected", "session_id", sessionID)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			if msg.Text == "" {
				continue
			}
			reply, err := h.engine.HandleTurn(r.Context(), sessionID, msg.Text)
			if err != nil {
				h.logger.Error("webchat turn failed", "session_id", sessionID, "error", err)
				_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "failed to process message"})
				continue
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{
				Type:      "message",
				Role:      "assistant",
				Text:      reply,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
}
