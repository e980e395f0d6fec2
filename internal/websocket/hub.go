package websocket

import (
	"context"
	"encoding/json"

	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries snapshots between instances sharing one Redis.
const ClusterChannel = "cluster_events"

type clusterMessage struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Hub fans list snapshots out to every connected client. All clients see the
// same shared list, so there is no per-user routing.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// instanceID tags our own Redis publishes so the subscriber can skip them.
	instanceID string
	rdb        *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		instanceID: uuid.NewString(),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.FeedSubscribers.Inc()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"subject": client.Subject})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"subject": client.Subject})
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- data:
				default:
					h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"subject": client.Subject})
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	metrics.FeedSubscribers.Dec()
}

// Publish delivers a snapshot to local clients and to the other instances.
func (h *Hub) Publish(v interface{}) {
	data, err := Encode(v)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode snapshot", map[string]interface{}{"error": err.Error()})
		return
	}
	h.broadcast <- data

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, Message: data})
		if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Encode wraps a snapshot in the frame clients expect.
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type": "items",
		"data": v,
	})
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}
		h.broadcast <- payload.Message
	}
}
