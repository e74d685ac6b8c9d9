package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub fans sync events out to every connected frontend. Unlike a multi-user
// sync server there is no per-user routing here: every client gets every
// event.
type Hub struct {
	clientsMutex sync.RWMutex
	clients      map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	h.clients[client] = true
	log.Printf("websocket client connected: %s", client.RemoteAddr)
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		log.Printf("websocket client disconnected: %s", client.RemoteAddr)
	}
}

// Broadcast sends the event to all connected clients. Clients whose send
// buffer is full are dropped rather than allowed to stall the broadcast.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("error marshaling event: %v", err)
		return
	}

	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	log.Printf("broadcasting %s to %d clients", event.Type, len(h.clients))
	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
			log.Printf("client %s send buffer full, closing connection", client.RemoteAddr)
			go func(c *Client) { h.Unregister <- c }(client)
		}
	}
}
