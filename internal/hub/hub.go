// Package hub tracks live connections by room and fans events out to them.
// Delivery is best effort: a subscriber with a full send buffer is skipped,
// never waited on.
package hub

import (
	"sync"

	"github.com/real-rm/livechat/internal/logging"
	"github.com/real-rm/livechat/internal/message"
	"github.com/real-rm/livechat/internal/metrics"
	"github.com/real-rm/livechat/internal/util"
)

// OperatorRoom is the implicit room every authenticated operator joins.
// Operators see traffic for all visitor sessions through it.
const OperatorRoom = "operators"

// Client is the send side of one live connection.
type Client interface {
	// ID uniquely identifies the connection within the hub.
	ID() string
	// SafeSend enqueues data without blocking. Returns false when the
	// connection is closing or its buffer is full.
	SafeSend(data []byte) bool
}

// Hub is the room registry. Visitor connections join their session's private
// room; operator connections join the operator room.
type Hub struct {
	rooms  map[string]map[string]Client // room -> connection ID -> client
	logger *logging.Logger
	mu     sync.RWMutex
}

// New creates an empty Hub.
func New(logger *logging.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]Client),
		logger: logger.Sub("hub"),
	}
}

// Join adds a client to a room.
func (h *Hub) Join(room string, client Client) {
	// No else needed: early return pattern (guard clause)
	if room == "" || client == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// No else needed: initialize if needed (lazy initialization)
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]Client)
	}
	h.rooms[room][client.ID()] = client

	h.logger.Debug("Client joined room",
		"room", room,
		"connection_id", client.ID(),
		"room_size", len(h.rooms[room]))
}

// Leave removes a client from a room. Empty rooms are deleted.
func (h *Hub) Leave(room string, client Client) {
	// No else needed: early return pattern (guard clause)
	if room == "" || client == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	// No else needed: early return pattern (guard clause)
	if !ok {
		return
	}

	delete(members, client.ID())
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// LeaveAll removes a client from every room it is in. Used on disconnect.
func (h *Hub) LeaveAll(client Client) {
	// No else needed: early return pattern (guard clause)
	if client == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		delete(members, client.ID())
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of clients in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish fans an event out to every client in a room. Returns the number of
// clients the event was enqueued for. A missing room or a slow subscriber is
// not an error: persistence has already happened by the time anything is
// published, so dropped deliveries only cost liveness, never data.
func (h *Hub) Publish(room string, event message.EventType, payload interface{}) int {
	envelope, err := buildEnvelope(event, payload)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		util.LogError(h.logger, "hub", "marshal event", err, "room", room, "event", event)
		return 0
	}

	h.mu.RLock()
	members := h.rooms[room]
	snapshot := make([]Client, 0, len(members))
	for _, c := range members {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range snapshot {
		if c.SafeSend(envelope) {
			delivered++
			metrics.MessagesDelivered.Inc()
		} else {
			metrics.DroppedEvents.Inc()
			h.logger.Debug("Dropped event for slow subscriber",
				"room", room,
				"event", event,
				"connection_id", c.ID())
		}
	}

	return delivered
}

// PublishOperators fans an event out to the operator room.
func (h *Hub) PublishOperators(event message.EventType, payload interface{}) int {
	return h.Publish(OperatorRoom, event, payload)
}

// SendTo delivers an event to a single client, bypassing room membership.
func (h *Hub) SendTo(client Client, event message.EventType, payload interface{}) bool {
	// No else needed: early return pattern (guard clause)
	if client == nil {
		return false
	}

	envelope, err := buildEnvelope(event, payload)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		util.LogError(h.logger, "hub", "marshal event", err, "event", event)
		return false
	}

	if !client.SafeSend(envelope) {
		metrics.DroppedEvents.Inc()
		return false
	}
	metrics.MessagesDelivered.Inc()
	return true
}

func buildEnvelope(event message.EventType, payload interface{}) ([]byte, error) {
	data, err := util.MarshalJSON(payload)
	if err != nil {
		return nil, err
	}
	return util.MarshalJSON(&message.Envelope{Event: event, Data: data})
}
