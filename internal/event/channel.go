package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// channelQueueSize bounds each channel's outbound queue; overflow
	// disconnects the channel (see Hub.broadcast).
	channelQueueSize = 32
)

const loginRequiredMessage = "Login required to bid."

// Channel is one live realtime connection. It accepts tagged JSON commands
// ("bid", "newPostRequest") and receives broadcast events through its
// bounded send queue. The hub owns the channel for its connection's
// lifetime.
type Channel struct {
	id       uuid.UUID
	hub      *Hub
	conn     *websocket.Conn
	identity string // empty for guests
	bids     BidPlacer

	// mu orders every send on the queue against shutdown's close; the
	// read pump keeps producing unicasts after the hub has cut the
	// channel loose, and a send racing the close would panic.
	mu     sync.Mutex
	closed bool
	send   chan Event
}

func NewChannel(hub *Hub, conn *websocket.Conn, identity string, bids BidPlacer) *Channel {
	return &Channel{
		id:       uuid.New(),
		hub:      hub,
		conn:     conn,
		identity: identity,
		send:     make(chan Event, channelQueueSize),
		bids:     bids,
	}
}

// Start registers the channel with the hub and runs its read and write
// pumps.
func (c *Channel) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// command is an inbound frame from the client.
type command struct {
	Type      string          `json:"type"`
	AuctionID int64           `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (c *Channel) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			// Only protocol-level failures terminate the connection.
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("channel_id", c.id.String()).Msg("realtime channel read failed")
			}
			return
		}
		c.handleCommand(data)
	}
}

// handleCommand dispatches one inbound frame. Malformed payloads produce a
// unicast error to this channel only; they never affect other channels or
// auction state.
func (c *Channel) handleCommand(data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.unicastError("malformed message")
		return
	}

	switch cmd.Type {
	case "bid":
		c.handleBid(cmd)
	case "newPostRequest":
		// Refresh hint: tell the requesting client to refetch the post
		// list over HTTP.
		c.unicast(Event{Type: TypePostsUpdated})
	default:
		c.unicastError("unknown message type")
	}
}

func (c *Channel) handleBid(cmd command) {
	if c.identity == "" {
		c.unicastError(loginRequiredMessage)
		return
	}
	if cmd.AuctionID <= 0 || !cmd.Amount.IsPositive() {
		c.unicastError("bid requires auction_id and a positive amount")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// An accepted bid is broadcast to every channel (this one included) by
	// the bidding service; only rejections come back here.
	if _, err := c.bids.PlaceBid(ctx, cmd.AuctionID, c.identity, cmd.Amount); err != nil {
		c.unicastError(err.Error())
	}
}

func (c *Channel) unicastError(message string) {
	c.unicast(Event{Type: TypeError, Error: message})
}

// unicast queues an event for this channel only. If the queue is full or
// already shut down the event is dropped; the hub disconnects an
// overflowing channel on its next broadcast anyway.
func (c *Channel) unicast(event Event) {
	c.enqueue(event)
}

// enqueue attempts a non-blocking send on the outbound queue, reporting
// false when the queue is full or shut down.
func (c *Channel) enqueue(event Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// shutdown closes the outbound queue exactly once. Any unicast arriving
// afterwards, from a read pump that has not exited yet, becomes a no-op.
func (c *Channel) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Channel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
