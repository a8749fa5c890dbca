package websocket

import (
	"encoding/json"
	"sync"
)

type BalanceUpdate struct {
	PocketID string  `json:"pocket_id"`
	Name     string  `json:"name"`
	Balance  string  `json:"balance"`
	GroupID  *string `json:"group_id,omitempty"`
}

// UserTopic and GroupTopic name the channels a pocket owner listens on.
func UserTopic(userID string) string {
	return "user:" + userID
}

func GroupTopic(groupID string) string {
	return "group:" + groupID
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

// Remove drops client from every topic it is registered on.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, clients := range h.clients {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, topic)
		}
	}
}

// Subscribe adds every open connection of userID to topic. Connections are
// found through the user's own topic, which each of them joins on connect.
func (h *Hub) Subscribe(userID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[UserTopic(userID)] {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

// Unsubscribe removes userID's connections from topic and leaves other
// subscribers in place.
func (h *Hub) Unsubscribe(userID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.clients[topic]
	for client := range clients {
		if client.userID == userID {
			delete(clients, client)
		}
	}
	if len(clients) == 0 {
		delete(h.clients, topic)
	}
}

// DropTopic removes every subscriber of topic.
func (h *Hub) DropTopic(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, topic)
}

// Subscribers reports how many clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// BroadcastBalance drops the message for clients whose buffer is full.
func (h *Hub) BroadcastBalance(topic string, update BalanceUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
