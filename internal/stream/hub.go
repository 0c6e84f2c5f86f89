package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "walks:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix

	clientBuffer = 64
)

// Hub fans walk events out to websocket subscribers. With Redis configured,
// every broadcast is relayed so subscribers attached to other instances see it
// too; an instance ignores relays it published itself.
type Hub struct {
	redis  *redis.Client
	origin string
	log    *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

type Client struct {
	SessionID string
	Send      chan []byte
}

type relay struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		redis:   redisClient,
		origin:  uuid.NewString(),
		log:     logger,
		clients: map[string]map[*Client]struct{}{},
		done:    make(chan struct{}),
	}

	if redisClient == nil {
		close(h.done)
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	if _, err := pubsub.Receive(waitCtx); err != nil {
		h.log.Warn("redis subscribe failed, relaying disabled", zap.Error(err))
	}
	waitCancel()
	go h.subscribeRedis(ctx, pubsub)
	return h
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

// Unregister is safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := sessionClients[client]; !ok {
		return
	}
	delete(sessionClients, client)
	if len(sessionClients) == 0 {
		delete(h.clients, client.SessionID)
	}
	close(client.Send)
}

func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) Broadcast(ctx context.Context, sessionID string, payload []byte) {
	h.deliver(sessionID, payload)

	if h.redis == nil {
		return
	}
	body, err := json.Marshal(relay{Origin: h.origin, Payload: payload})
	if err != nil {
		return
	}
	if err := h.redis.Publish(ctx, redisChannel(sessionID), body).Err(); err != nil {
		h.log.Warn("redis publish failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Close stops the Redis relay. Local subscribers are left attached.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.done
}

// deliver never blocks; a subscriber with a full buffer misses the message.
func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			sessionID := sessionIDFromChannel(msg.Channel)
			if sessionID == "" {
				continue
			}
			var r relay
			if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
				h.log.Debug("dropping malformed relay", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if r.Origin == h.origin {
				continue
			}
			h.deliver(sessionID, r.Payload)
		}
	}
}

func redisChannel(sessionID string) string {
	return channelPrefix + sessionID + channelSuffix
}

func sessionIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
