package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// connection: a websocket with serialized writes, shared by the read loop and forwarders
type connection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newConnection(conn *websocket.Conn) *connection {
	return &connection{conn: conn}
}

// Send: marshal frame and write it as one text message
func (c *connection) Send(frame any) error {
	msg, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ping is safe to call concurrently with Send
func (c *connection) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *connection) Close() error {
	return c.conn.Close()
}
