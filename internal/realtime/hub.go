package realtime

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/okastudio/platewatch/pkg/logger"
)

const defaultBufferSize = 64

// Message is the JSON frame pushed to subscribers.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// subKey identifies one user's membership on one stream.
type subKey struct {
	stream string
	user   string
}

// Hub fans messages out to websocket clients, multiplexing the named
// streams over a single connection per client.
type Hub struct {
	mu       sync.RWMutex
	members  map[subKey]map[*connection]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		members: make(map[subKey]map[*connection]struct{}),
		log:     logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOriginOrLoopback,
		},
	}
}

// Serve upgrades the request and pumps messages until the peer goes away.
// A nil allowed set permits every stream.
func (h *Hub) Serve(userID string, streams []string, allowed map[string]struct{}, w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := &connection{
		hub:     h,
		socket:  socket,
		userID:  userID,
		send:    make(chan Message, defaultBufferSize),
		allowed: allowed,
	}
	h.subscribe(client, streams)

	go client.writeLoop()
	client.readLoop()
}

// BroadcastToUser queues a message for every connection the user holds on
// the stream. Unknown streams and absent users are silently ignored.
func (h *Hub) BroadcastToUser(stream, userID string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" || userID == "" {
		return
	}
	message.Stream = stream

	h.mu.RLock()
	var slow []*connection
	for client := range h.members[subKey{stream, userID}] {
		if !client.trySend(message) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	h.dropSlow(slow)
}

// BroadcastToUsers delivers the message to each listed user on the stream.
func (h *Hub) BroadcastToUsers(stream string, userIDs []string, message Message) {
	for _, id := range userIDs {
		h.BroadcastToUser(stream, id, message)
	}
}

// BroadcastStream delivers the message to every subscriber of the stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}
	message.Stream = stream

	h.mu.RLock()
	var slow []*connection
	for key, clients := range h.members {
		if key.stream != stream {
			continue
		}
		for client := range clients {
			if !client.trySend(message) {
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	h.dropSlow(slow)
}

func (h *Hub) subscribe(client *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		if !client.isAllowed(stream) {
			h.log.Warn("ignoring unauthorized stream",
				zap.String("stream", stream), zap.String("user_id", client.userID))
			continue
		}
		if client.streams == nil {
			client.streams = make(map[string]struct{})
		}
		if _, ok := client.streams[stream]; ok {
			continue
		}
		client.streams[stream] = struct{}{}

		key := subKey{stream, client.userID}
		if h.members[key] == nil {
			h.members[key] = make(map[*connection]struct{})
		}
		h.members[key][client] = struct{}{}
	}
}

func (h *Hub) unsubscribe(client *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		h.dropLocked(client, stream)
	}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stream := range client.streams {
		h.dropLocked(client, stream)
	}
}

func (h *Hub) dropLocked(client *connection, stream string) {
	key := subKey{stream, client.userID}
	clients := h.members[key]
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.members, key)
	}
	delete(client.streams, stream)
}

// dropSlow disconnects clients that could not accept a broadcast. It must
// run after the subscription lock is released: close unregisters the client,
// which takes the write lock.
func (h *Hub) dropSlow(clients []*connection) {
	for _, client := range clients {
		h.log.Warn("dropping slow client", zap.String("user_id", client.userID))
		client.close()
	}
}
