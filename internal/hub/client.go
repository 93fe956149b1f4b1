package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guifei-live/room-server/internal/config"
	"github.com/guifei-live/room-server/pkg/log"
)

// Client pumps messages between one websocket connection and the engine.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	cfg  config.WebSocketConfig

	// mu guards closed so Push never races a concurrent Close into
	// sending on a closed channel.
	mu     sync.Mutex
	closed bool
}

func NewClient(id string, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, cfg.SendBufferSize),
		cfg:  cfg,
	}
}

func (c *Client) ID() string { return c.id }

// Push queues data for delivery. It never blocks; a full buffer or an
// already closed client drops the message and reports false.
func (c *Client) Push(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close shuts the outbound queue down, which makes WritePump exit. Safe
// to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads inbound frames and hands them to onMessage. It exits on
// any read error and then invokes onClose exactly once.
func (c *Client) ReadPump(onMessage func([]byte), onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Warn().Err(err).Str(log.FieldConnID, c.id).Msg("websocket read error")
			}
			break
		}
		onMessage(message)
	}
}

// WritePump writes queued messages to the websocket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
