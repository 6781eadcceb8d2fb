package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/slotwise/bookingd/internal/identity"
	"github.com/slotwise/bookingd/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks happen in the CORS middleware.
	},
}

// Handler upgrades HTTP connections to WebSocket and wires them to the hub.
type Handler struct {
	hub    *Hub
	logger *logging.Logger
}

// NewHandler creates a WebSocket handler bound to the hub.
func NewHandler(hub *Hub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{hub: hub, logger: logger}
}

// HandleConnect upgrades the connection, auto-subscribes the caller to its
// own topic based on role, and starts the read/write pumps.
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	topic := ClientTopic(id.UserID)
	if id.Role == identity.RoleProvider {
		topic = ProviderTopic(id.UserID)
	}
	client := &Client{
		Topics: []string{topic},
		Send:   make(chan []byte, 256),
	}
	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)
}

func (h *Handler) readPump(client *Client, ws *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed frames.
		}
		h.hub.ProcessMessage(client, msg)
	}
}

func (h *Handler) writePump(client *Client, ws *websocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
