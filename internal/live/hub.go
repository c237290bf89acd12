// Package live fans response progress out to admin panel websocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

const (
	MessageProgress = "response_progress"

	sendBufferSize      = 64
	broadcastBufferSize = 256
)

// Message is the envelope written to subscribers
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client is one subscriber. SurveyID 0 receives every survey.
type Client struct {
	SurveyID uint
	Send     chan []byte
}

func NewClient(surveyID uint) *Client {
	return &Client{SurveyID: surveyID, Send: make(chan []byte, sendBufferSize)}
}

type broadcast struct {
	surveyID uint
	data     []byte
}

// Hub tracks subscribers and delivers broadcasts to them. Slow subscribers drop messages.
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcast, broadcastBufferSize),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			logger.Debug(fmt.Sprintf("Live: subscriber added (survey %d)", client.SurveyID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if client.SurveyID != 0 && client.SurveyID != msg.surveyID {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					// buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client. Once the hub stopped the client is closed right away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns the number of connected clients
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastProgress implements evaluation.Broadcaster. It never blocks the caller.
func (h *Hub) BroadcastProgress(event evaluation.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Err("Live: failed to encode progress event:", err)
		return
	}
	data, err := json.Marshal(Message{Type: MessageProgress, Payload: payload})
	if err != nil {
		logger.Err("Live: failed to encode message:", err)
		return
	}

	select {
	case h.broadcast <- broadcast{surveyID: event.SurveyID, data: data}:
	default:
		logger.Warn("Live: broadcast queue full, dropping progress event for session", event.SessionID)
	}
}
