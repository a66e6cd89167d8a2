package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// Hub maintains the set of active Clients and streams output events to
// them. Clients subscribe per ticket, or to the firehose for dashboard
// views over all tickets.
type Hub struct {
	// clients holds every active connection
	clients map[*Client]bool

	// rooms maps ticket IDs to subscribed clients
	rooms map[string]map[*Client]bool

	// firehose holds clients receiving every output event
	firehose map[*Client]bool

	// broadcast channel for events
	broadcast chan domain.OutputEvent

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients, rooms and firehose maps
	mu sync.RWMutex

	logger *slog.Logger
}

// Hub doubles as an event sink so the engine can fan out to live
// subscribers alongside the message bus.
var _ ports.EventPublisher = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		firehose:   make(map[*Client]bool),
		broadcast:  make(chan domain.OutputEvent, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Publish queues an output event for delivery to subscribed clients.
// Never blocks the engine; events are dropped when the hub is saturated.
func (h *Hub) Publish(ctx context.Context, event domain.OutputEvent) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"ticket_id", event.TicketID,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("client registered",
		"subscriber", client.Subscriber,
		"total_connections", len(h.clients),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.firehose, client)

	for _, ticketID := range client.GetSubscriptions() {
		if room, ok := h.rooms[ticketID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, ticketID)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered", "subscriber", client.Subscriber)
}

// broadcastEvent delivers an event to the ticket's room and the firehose.
func (h *Hub) broadcastEvent(event domain.OutputEvent) {
	h.mu.RLock()
	recipients := make([]*Client, 0)
	seen := make(map[*Client]bool)
	if room, ok := h.rooms[event.TicketID]; ok {
		for client := range room {
			recipients = append(recipients, client)
			seen[client] = true
		}
	}
	for client := range h.firehose {
		if !seen[client] {
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"ticket_id", event.TicketID,
		"client_count", len(recipients),
	)

	for _, client := range recipients {
		select {
		case client.Send <- event:
			// Successfully queued
		default:
			// Client's send buffer is full, drop the connection.
			// Unregister directly: sending to h.Unregister from the
			// hub's own loop would deadlock.
			h.logger.Warn("client send buffer full, unregistering",
				"subscriber", client.Subscriber,
			)
			h.unregisterClient(client)
		}
	}
}

// subscribeClientToTicket adds a client to a ticket's room
func (h *Hub) subscribeClientToTicket(client *Client, ticketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[ticketID] == nil {
		h.rooms[ticketID] = make(map[*Client]bool)
	}
	h.rooms[ticketID][client] = true
	client.AddSubscription(ticketID)

	h.logger.Debug("client subscribed to ticket",
		"subscriber", client.Subscriber,
		"ticket_id", ticketID,
	)
}

// unsubscribeClientFromTicket removes a client from a ticket's room
func (h *Hub) unsubscribeClientFromTicket(client *Client, ticketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[ticketID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
	client.RemoveSubscription(ticketID)

	h.logger.Debug("client unsubscribed from ticket",
		"subscriber", client.Subscriber,
		"ticket_id", ticketID,
	)
}

// subscribeClientToFirehose adds a client to the all-events stream
func (h *Hub) subscribeClientToFirehose(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.firehose[client] = true

	h.logger.Debug("client subscribed to firehose", "subscriber", client.Subscriber)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomCount returns the number of active rooms
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientsInRoom returns the number of clients subscribed to a ticket
func (h *Hub) GetClientsInRoom(ticketID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[ticketID]; ok {
		return len(room)
	}
	return 0
}
