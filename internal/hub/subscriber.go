package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Handler receives one published frame. Called sequentially per subscriber;
// handlers that do real work should hand off to their own goroutines.
type Handler func(topic string, payload []byte)

// Subscriber is a resilient client for a Hub's subscribe endpoint. It dials,
// reads frames, and reconnects with a fixed wait after any failure until its
// context is cancelled.
type Subscriber struct {
	url           string
	handler       Handler
	reconnectWait time.Duration
}

// NewSubscriber builds a subscriber for the coordinator at baseURL (an http
// or https address), subscribing to the given topics.
func NewSubscriber(baseURL string, topics []string, handler Handler) (*Subscriber, error) {
	wsURL, err := subscribeURL(baseURL, topics)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		url:           wsURL,
		handler:       handler,
		reconnectWait: 2 * time.Second,
	}, nil
}

// Run connects and consumes frames until ctx is cancelled. Connection
// failures are retried indefinitely; a broadcast channel outage must not
// terminate a worker.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			log.Printf("subscriber: connect %s failed: %v", s.url, err)
			if !sleepCtx(ctx, s.reconnectWait) {
				return ctx.Err()
			}
			continue
		}

		s.readLoop(ctx, conn)

		if !sleepCtx(ctx, s.reconnectWait) {
			return ctx.Err()
		}
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("subscriber: connection lost: %v", err)
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Printf("subscriber: bad frame: %v", err)
			continue
		}
		if s.handler != nil {
			s.handler(frame.Topic, frame.Payload)
		}
	}
}

func subscribeURL(baseURL string, topics []string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("subscriber: bad base url %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("subscriber: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/subscribe"
	q := u.Query()
	q.Set("topics", strings.Join(topics, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
