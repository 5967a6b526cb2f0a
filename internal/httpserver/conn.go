package httpserver

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bingohall/internal/bingo"
)

const writeTimeout = 10 * time.Second

// wsConn adapts a gorilla websocket to the engine's Conn contract: one
// tagged message per text frame. Gorilla allows a single concurrent writer,
// so Send serializes under a mutex.
type wsConn struct {
	ws *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Send(msg bingo.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(msg.Encode()))
}

func (c *wsConn) Receive() (bingo.Message, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return bingo.Message{}, err
	}
	return bingo.ParseMessage(string(data)), nil
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
	return c.ws.Close()
}
