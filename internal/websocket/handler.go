package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection with the hub, queues the initial snapshot and
// blocks until the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, subject string, initial []byte) {
	client := &Client{Hub: hub, Conn: c, Subject: subject, Send: make(chan []byte, 16)}
	if initial != nil {
		client.Send <- initial
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
