// Package hub provides the topic-scoped publish/subscribe broadcast channel
// between the coordinator and its subscribers (aisle workers, telemetry
// consumers) over WebSocket.
//
// Publishing is fire-and-forget: Publish never blocks the orchestration path
// and never reports delivery failures. A slow subscriber's queue simply drops
// frames, matching the best-effort semantics of the broadcast channel.
package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Frame is the wire envelope for one published message. Payload must already
// be valid JSON (the dispatch codec and telemetry encoder both produce JSON).
type Frame struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// sendQueueSize bounds the per-subscriber backlog before frames are dropped.
const sendQueueSize = 64

type client struct {
	conn   *websocket.Conn
	topics map[string]bool
	send   chan Frame
}

// Hub fans published frames out to every connected subscriber whose topic set
// matches. It implements http.Handler for the subscribe endpoint.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket subscription. The topics
// query parameter selects which topics the subscriber receives, comma
// separated; absent or empty means all topics.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: upgrade failed: %v", err)
		return
	}

	c := &client{
		conn:   conn,
		topics: parseTopics(r.URL.Query().Get("topics")),
		send:   make(chan Frame, sendQueueSize),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Publish sends payload to every subscriber of topic. It never blocks: frames
// for subscribers with a full queue are dropped.
func (h *Hub) Publish(topic string, payload []byte) {
	frame := Frame{Topic: topic, Payload: json.RawMessage(payload)}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if len(c.topics) > 0 && !c.topics[topic] {
			continue
		}
		select {
		case c.send <- frame:
		default:
			// Subscriber is not keeping up; drop rather than block dispatch.
		}
	}
}

// Subscribers returns the current subscriber count. Diagnostics and tests.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) writeLoop(c *client) {
	for frame := range c.send {
		if err := c.conn.WriteJSON(frame); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.Close()
}

// readLoop discards inbound messages and detects disconnects. Subscribers
// never send application data; reports travel over the point-to-point HTTP
// endpoint instead.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

func parseTopics(raw string) map[string]bool {
	topics := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			topics[t] = true
		}
	}
	return topics
}
