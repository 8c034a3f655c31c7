package websocket

import (
	"log"
	"sync"
	"time"
)

// MessageToPost defines the structure for pushing a payload to every
// viewer watching a post's comment panel.
type MessageToPost struct {
	PostID  string
	Payload []byte
}

// Hub maintains the set of active clients grouped by the post whose
// comments they are watching.
type Hub struct {
	// Registered clients. Maps post ID to a set of active client connections.
	Clients map[string]map[*Client]bool

	// Channel for pushing comment snapshots to a post's watchers.
	SendPost chan *MessageToPost

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Invoked when a post gains its first watcher / loses its last one.
	// Used to expand and collapse the backing comment streams.
	OnFirstSubscriber func(postID string)
	OnLastSubscriber  func(postID string)

	// Mutex to protect concurrent access to the clients map.
	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		SendPost:   make(chan *MessageToPost),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[string]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket Hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			first := false
			if _, ok := h.Clients[client.PostID]; !ok {
				h.Clients[client.PostID] = make(map[*Client]bool)
				first = true
			}
			h.Clients[client.PostID][client] = true
			log.Printf("WebSocket client registered for post %s. Watchers: %d", client.PostID, len(h.Clients[client.PostID]))
			h.mu.Unlock()
			if first && h.OnFirstSubscriber != nil {
				h.OnFirstSubscriber(client.PostID)
			}

		case client := <-h.Unregister:
			h.mu.Lock()
			last := false
			if postClients, ok := h.Clients[client.PostID]; ok {
				if _, clientOk := postClients[client]; clientOk {
					delete(postClients, client)
					if len(postClients) == 0 {
						delete(h.Clients, client.PostID)
						last = true
					}
				}
			}
			h.mu.Unlock()
			if last {
				log.Printf("WebSocket client unregistered. Post %s has no more watchers.", client.PostID)
				if h.OnLastSubscriber != nil {
					h.OnLastSubscriber(client.PostID)
				}
			}

		case message := <-h.SendPost:
			h.mu.RLock()
			for client := range h.Clients[message.PostID] {
				select {
				case client.Send <- message.Payload:
				default:
					log.Printf("Send channel full for a watcher of post %s. Snapshot dropped for this client.", message.PostID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// SendToPost queues a payload for every client watching the given post.
// Called from the engine's comment fanout, never from handler goroutines
// holding locks.
func (h *Hub) SendToPost(postID string, payload []byte) {
	message := &MessageToPost{
		PostID:  postID,
		Payload: payload,
	}
	select {
	case h.SendPost <- message:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing snapshot for post %s. Hub might be busy or blocked.", postID)
	}
}
