package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/rs/zerolog"
)

var errHubStopped = errors.New("websocket hub stopped")

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSlotsBooked   MessageType = "slots_booked"
	MessageTypeSlotsReleased MessageType = "slots_released"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// SlotUpdate describes one reservation whose availability changed
type SlotUpdate struct {
	ItemID    uuid.UUID     `json:"itemId"`
	Date      calendar.Date `json:"date"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Status    string        `json:"status"` // booked, available
}

// Message represents a WebSocket message
type Message struct {
	Type      MessageType  `json:"type"`
	CourtID   string       `json:"courtId"`
	BookingID string       `json:"bookingId,omitempty"`
	Slots     []SlotUpdate `json:"slots,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	courtID uuid.UUID
}

// Hub manages WebSocket connections per court
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "websocket").Logger(),
	}
}

// Run starts the hub's main loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.courtID] == nil {
				h.clients[client.courtID] = make(map[*Client]bool)
			}
			h.clients[client.courtID][client] = true
			h.log.Debug().Str("courtId", client.courtID.String()).Int("total", len(h.clients[client.courtID])).
				Msg("client registered")
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			courtID, err := uuid.Parse(message.CourtID)
			if err != nil {
				h.log.Warn().Str("courtId", message.CourtID).Msg("invalid court id in broadcast")
				continue
			}

			data, err := json.Marshal(message)
			if err != nil {
				h.log.Error().Err(err).Msg("failed to marshal message")
				continue
			}

			h.mu.Lock()
			clients := h.clients[courtID]
			h.log.Debug().Str("type", string(message.Type)).Int("clients", len(clients)).
				Str("courtId", message.CourtID).Msg("broadcasting")
			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops a client; callers hold h.mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.courtID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	h.log.Debug().Str("courtId", client.courtID.String()).Int("remaining", len(clients)).Msg("client unregistered")
	if len(clients) == 0 {
		delete(h.clients, client.courtID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.remove(client)
		}
	}
}

func (h *Hub) publish(msg *Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("type", string(msg.Type)).Str("courtId", msg.CourtID).Msg("broadcast queue full, dropping message")
	}
}

// BroadcastSlotsBooked tells clients watching a court that slots were taken
func (h *Hub) BroadcastSlotsBooked(courtID, bookingID uuid.UUID, items []models.BookingItem) {
	h.publish(&Message{
		Type:      MessageTypeSlotsBooked,
		CourtID:   courtID.String(),
		BookingID: bookingID.String(),
		Slots:     slotUpdates(courtID, items, "booked"),
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastSlotsReleased tells clients watching a court that slots are free again
func (h *Hub) BroadcastSlotsReleased(courtID, bookingID uuid.UUID, items []models.BookingItem) {
	h.publish(&Message{
		Type:      MessageTypeSlotsReleased,
		CourtID:   courtID.String(),
		BookingID: bookingID.String(),
		Slots:     slotUpdates(courtID, items, "available"),
		Message:   "Reservation released - slots are now available",
		Timestamp: time.Now().UnixMilli(),
	})
}

func slotUpdates(courtID uuid.UUID, items []models.BookingItem, status string) []SlotUpdate {
	var out []SlotUpdate
	for _, it := range items {
		if it.CourtID != courtID {
			continue
		}
		out = append(out, SlotUpdate{
			ItemID:    it.ID,
			Date:      it.RefDate,
			StartTime: it.StartTime,
			EndTime:   it.EndTime,
			Status:    status,
		})
	}
	return out
}

// GetClientCount returns the number of clients watching a court
func (h *Hub) GetClientCount(courtID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[courtID])
}

// ServeWS upgrades the request and subscribes the connection to courtID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, courtID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), courtID: courtID}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return errHubStopped
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump discards inbound frames and detects closed connections.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
