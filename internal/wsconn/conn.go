// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package wsconn wraps a gorilla websocket connection with the single-writer
// discipline gorilla requires: concurrent goroutines may each hold a Conn
// and call WriteJSON/Close without racing on the underlying socket.
package wsconn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn serializes writes to a single *websocket.Conn.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Wrap adopts an already-upgraded websocket connection.
func Wrap(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteJSON marshals v and writes it as a single text frame.
func (c *Conn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// Close closes the underlying connection with a normal closure frame.
func (c *Conn) Close() error {
	return c.CloseWithReason(websocket.CloseNormalClosure, "")
}

// CloseWithReason sends a close frame with the given code/reason and closes
// the socket. Errors sending the close frame are ignored: the socket close
// that follows is authoritative either way.
func (c *Conn) CloseWithReason(code int, reason string) error {
	c.mu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, msg)
	c.mu.Unlock()
	return c.ws.Close()
}

// WritePing sends a native WebSocket ping frame (transport-level keepalive,
// distinct from the room's application-level {"method":"ping"} envelope).
func (c *Conn) WritePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

// Underlying returns the wrapped connection for read-pump use (reads are
// never concurrent with each other so they don't need the write mutex).
func (c *Conn) Underlying() *websocket.Conn {
	return c.ws
}
