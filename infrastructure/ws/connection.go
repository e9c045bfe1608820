package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	closeOnTimeout = "write timeout"
	closeOnRemoval = "removed from conversation"
)

// Frame is the JSON envelope exchanged on the socket.
// Server frames are "message", "typing" or "removed", client frames are "typing".
type Frame struct {
	Type     string `json:"type"`
	Payload  any    `json:"payload,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

// connection serializes writes to one websocket. Only writeLoop writes
// data frames; Close may be called from anywhere.
type connection struct {
	ws    *websocket.Conn
	once  sync.Once
	close chan struct{}
}

func newConnection(ws *websocket.Conn) *connection {
	return &connection{ws: ws, close: make(chan struct{})}
}

func (c *connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *connection) Closed() <-chan struct{} {
	return c.close
}

func (c *connection) writeFrame(f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

// readFrames decodes client frames until the socket fails. The read
// deadline is pushed back on every pong.
func (c *connection) readFrames(fn func(Frame)) error {
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			return err
		}
		fn(f)
	}
}
