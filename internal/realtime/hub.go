package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event is the envelope every realtime payload travels in.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

const (
	EventReceiveMessage  = "receive_message"
	EventPaymentUpdated  = "payment_updated"
	EventRatingUpdated   = "rating_updated"
	EventFeedbackUpdated = "feedback_updated"
)

// Client is one websocket connection. The transport write loop drains Send;
// the hub never touches the connection itself.
type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

// Hub fans events out to clients grouped into per-project rooms. Clients
// join rooms explicitly; delivery is best-effort and a client with a full
// send buffer is dropped rather than blocking the hub.
type Hub struct {
	clients    map[string]*Client
	rooms      map[uuid.UUID]map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[uuid.UUID]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// JoinProject subscribes a registered client to a project room.
func (h *Hub) JoinProject(client *Client, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[projectID] = room
	}
	room[client.ID] = client
}

// SendToProject marshals v and delivers it to every client in the room.
func (h *Hub) SendToProject(projectID uuid.UUID, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling room payload: %v", err)
		return
	}
	h.SendRawToProject(projectID, payload)
}

// SendRawToProject delivers an already-encoded payload to a project room.
func (h *Hub) SendRawToProject(projectID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[projectID] {
		select {
		case client.Send <- payload:
		default:
			// full buffer, skip rather than block
		}
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("Client registered: %s (UserID: %s)", client.ID, client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				for projectID, room := range h.rooms {
					delete(room, client.ID)
					if len(room) == 0 {
						delete(h.rooms, projectID)
					}
				}
				close(old.Send)
				log.Printf("Client unregistered: %s", client.ID)
			}
			h.mu.Unlock()
		}
	}
}
